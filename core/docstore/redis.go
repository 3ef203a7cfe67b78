package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisBackend = "redis"

// RedisStore keeps each document as a JSON string at <prefix>:<realm>:<name>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient parses url and builds a client. It does not dial; the
// connectivity monitor decides when the server is reachable.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore creates a RedisStore over client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k Key) string {
	return s.prefix + ":" + k.Realm + ":" + k.Name
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Document, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, classifyRedisError(err))
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &BackendError{Backend: redisBackend, Code: "InvalidDocument", Message: fmt.Sprintf("%s: %v", key, err), Err: err}
	}
	return &doc, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, doc Document) error {
	return s.SetMany(ctx, map[Key]Document{key: doc})
}

// SetMany writes every document inside MULTI/EXEC.
func (s *RedisStore) SetMany(ctx context.Context, docs map[Key]Document) error {
	payloads := make(map[string][]byte, len(docs))
	keys := orderedKeys(docs)
	for _, k := range keys {
		data, err := json.Marshal(docs[k])
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		payloads[s.key(k)] = data
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			name := s.key(k)
			pipe.Set(ctx, name, payloads[name], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %d documents: %w", len(docs), classifyRedisError(err))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, classifyRedisError(err))
	}
	return nil
}

func (s *RedisStore) DeleteRealm(ctx context.Context, realm string) error {
	if err := ValidateRealm(realm); err != nil {
		return err
	}
	pattern := s.prefix + ":" + escapeGlob(realm) + ":*"
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan realm %s: %w", realm, classifyRedisError(err))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete realm %s: %w", realm, classifyRedisError(err))
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return classifyRedisError(s.client.Ping(ctx).Err())
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func classifyRedisError(err error) error {
	if err == nil {
		return nil
	}
	var rerr redis.Error
	if errors.As(err, &rerr) {
		msg := rerr.Error()
		code, _, _ := strings.Cut(msg, " ")
		return &BackendError{Backend: redisBackend, Code: code, Message: msg, Err: err}
	}
	return &UnavailableError{Backend: redisBackend, Err: err}
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
