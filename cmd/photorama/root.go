package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di"
	"github.com/photoramax/photorama/internal/di/providers"
)

func newRootCmd(flags *config.Flags) *cobra.Command {
	format := formatText

	cmd := &cobra.Command{
		Use:           "photorama",
		Short:         "Photorama syncs a remote photo listing into a local library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("unknown format %q (must be text, json or yaml)", format)
			}
		},
	}

	cmd.Version = version

	pf := cmd.PersistentFlags()
	pf.StringVar(&format, "format", formatText, "output format: text, json or yaml")
	pf.StringVar(&flags.ConfigFile, "config", "", "TOML config file")
	pf.StringVar(&flags.EnvFile, "env-file", "", "env file (default .env)")
	pf.StringVar(&flags.Env, "env", "", "environment: development, staging or production")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&flags.DataPath, "data-path", "", "base directory for local state (default ~/Photorama)")
	pf.StringVar(&flags.DBPath, "db-path", "", "SQLite database file")
	pf.StringVar(&flags.CacheBackend, "cache-backend", "", "image cache backend: bolt, badger, pebble or fs")
	pf.StringVar(&flags.CachePath, "cache-path", "", "image cache location")
	pf.StringVar(&flags.FlickrBaseURL, "flickr-url", "", "listing endpoint base URL")
	pf.StringVar(&flags.FlickrAPIKey, "api-key", "", "listing API key")
	pf.StringVar(&flags.Timeout, "timeout", "", "remote request timeout, e.g. 30s")
	pf.StringVar(&flags.Workers, "workers", "", "background worker count")

	cmd.AddCommand(
		newSyncCmd(flags, &format),
		newPhotosCmd(flags, &format),
		newImageCmd(flags, &format),
		newTagsCmd(flags, &format),
		newTagCmd(flags, &format),
		newServeCmd(flags),
		newCacheCmd(flags, &format),
	)

	return cmd
}

// withPhotoStore builds a container for one command and shuts it down after fn.
func withPhotoStore(flags *config.Flags, fn func(ps *providers.PhotoStoreHandle) error) error {
	injector := di.NewContainer(*flags)
	defer injector.Shutdown() //nolint:errcheck // errors are logged by the handles

	ps, err := do.Invoke[*providers.PhotoStoreHandle](injector)
	if err != nil {
		return err
	}
	return fn(ps)
}

// await submits a callback operation and blocks until its single delivery.
func await[T any](submit func(cb func(T, error))) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	submit(func(v T, err error) { ch <- result{v, err} })
	r := <-ch
	return r.v, r.err
}
