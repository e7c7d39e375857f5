// Package backends opens the storage, cache and logging backends named in
// the settings. Binaries share it so that the API server, the trainer and
// the dev scripts all see the same corpus and model store.
package backends

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	s3blob "github.com/mollybeach/ai-rug-checker/internal/blob/s3"
	rediscache "github.com/mollybeach/ai-rug-checker/internal/cache/redis"
	"github.com/mollybeach/ai-rug-checker/internal/cfg"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
	"github.com/mollybeach/ai-rug-checker/internal/storage/postgres"
)

// SetupLogging configures the global zerolog logger. Unknown levels fall
// back to info.
func SetupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// OpenCorpus opens the labeled-record store selected by CorpusBackend.
func OpenCorpus(ctx context.Context, s cfg.Settings) (storage.Corpus, error) {
	switch s.CorpusBackend {
	case "bolt":
		if err := os.MkdirAll(s.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := storage.New(s.DataPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", s.DataPath).Msg("Using bolt corpus")
		return store, nil

	case "postgres":
		client, err := postgres.New(ctx, postgres.ClientConfig{DSN: s.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := client.RunMigrations(ctx); err != nil {
			client.Close()
			return nil, err
		}
		log.Info().Msg("Using postgres corpus")
		return postgres.NewCorpusStore(client), nil

	default:
		return nil, fmt.Errorf("unknown corpus backend %q", s.CorpusBackend)
	}
}

// OpenModelStore opens the artifact store selected by ModelBackend.
func OpenModelStore(ctx context.Context, s cfg.Settings) (ml.ModelStore, error) {
	switch s.ModelBackend {
	case "file":
		store, err := storage.NewFileModelStore(s.ModelPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", s.ModelPath).Msg("Using file model store")
		return store, nil

	case "s3":
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       s.S3.Endpoint,
			Region:         s.S3.Region,
			Bucket:         s.S3.Bucket,
			Prefix:         "models/",
			AccessKey:      s.S3.AccessKey,
			SecretKey:      s.S3.SecretKey,
			UseSSL:         true,
			ForcePathStyle: s.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		if err := client.Health(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", client.Bucket()).Msg("S3 bucket not reachable yet")
		}
		log.Info().Str("bucket", client.Bucket()).Msg("Using S3 model store")
		return s3blob.NewModelStore(client), nil

	default:
		return nil, fmt.Errorf("unknown model backend %q", s.ModelBackend)
	}
}

// OpenCache connects the Redis assessment cache. It returns a nil cache and
// no error when RedisAddr is empty.
func OpenCache(ctx context.Context, s cfg.Settings) (*rediscache.AssessmentCache, func(), error) {
	if s.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client, err := rediscache.New(ctx, rediscache.ClientConfig{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
	})
	if err != nil {
		return nil, func() {}, err
	}
	log.Info().Str("addr", s.RedisAddr).Dur("ttl", s.CacheTTL).Msg("Using redis assessment cache")
	return rediscache.NewAssessmentCache(client, s.CacheTTL), func() { client.Close() }, nil
}
