package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// healthCmd checks the remote store and prints the sync status.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity and show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openAgent(ctx, cliConfirmer)
		if err != nil {
			return err
		}
		defer a.Close()

		online := a.orch.CheckHealth(ctx)
		st := a.orch.Status(ctx)

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
		} else {
			fmt.Println("\n--- Sync Status ---")
			fmt.Printf("Device:         %s\n", st.DeviceID)
			fmt.Printf("Remote:         %s\n", a.remote.Backend)
			fmt.Printf("Online:         %v\n", st.Online)
			fmt.Printf("Pending:        %d\n", st.PendingCount)
			if st.LastError != "" {
				fmt.Printf("Last error:     %s\n", st.LastError)
			}
			fmt.Println("-------------------")
		}

		if !online {
			_, lastErr := a.orch.Monitor().LastCheck()
			a.log.Warn("Remote store unreachable", zap.Error(lastErr))
			return fmt.Errorf("remote store %s is unreachable", a.remote.Backend)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the status as JSON")
	RootCmd.AddCommand(healthCmd)
}
