package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// JWTSecret verifies caller bearer tokens. Empty disables bearer auth,
	// leaving API-key callers with unrestricted scope.
	JWTSecret string `mapstructure:"jwt_secret" default:""`
}

// BearerAuthEnabled reports whether caller tokens can be verified.
func (c Config) BearerAuthEnabled() bool {
	return c.JWTSecret != ""
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	return ":" + c.Port
}
