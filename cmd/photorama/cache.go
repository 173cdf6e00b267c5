package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di"
	"github.com/photoramax/photorama/internal/di/providers"
)

// cacheStats summarizes the image cache contents.
type cacheStats struct {
	Backend string   `json:"backend" yaml:"backend"`
	Path    string   `json:"path" yaml:"path"`
	Entries int      `json:"entries" yaml:"entries"`
	Bytes   int64    `json:"bytes" yaml:"bytes"`
	Largest string   `json:"largest,omitempty" yaml:"largest,omitempty"`
	Keys    []string `json:"keys,omitempty" yaml:"keys,omitempty"`
}

func newCacheCmd(flags *config.Flags, format *string) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the image cache",
	}

	var listKeys bool
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Count cached images and their total size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := di.NewContainer(*flags)
			defer injector.Shutdown() //nolint:errcheck

			cfg, err := do.Invoke[*config.Config](injector)
			if err != nil {
				return err
			}
			c, err := do.Invoke[*providers.CacheHandle](injector)
			if err != nil {
				return err
			}

			stats := cacheStats{Backend: cfg.Cache.Backend, Path: cfg.Cache.Path}
			largest := -1
			err = c.Walk(func(key string, size int) error {
				stats.Entries++
				stats.Bytes += int64(size)
				if size > largest {
					largest = size
					stats.Largest = key
				}
				if listKeys {
					stats.Keys = append(stats.Keys, key)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("walk cache: %w", err)
			}

			if *format != formatText {
				return writeStructured(cmd.OutOrStdout(), *format, stats)
			}

			w := cmd.OutOrStdout()
			if err := writePlain(w, "backend: %s\npath: %s\nentries: %d\nbytes: %d\n",
				stats.Backend, stats.Path, stats.Entries, stats.Bytes); err != nil {
				return err
			}
			if stats.Largest != "" {
				if err := writePlain(w, "largest: %s (%d bytes)\n", stats.Largest, largest); err != nil {
					return err
				}
			}
			for _, k := range stats.Keys {
				if err := writePlain(w, "  %s\n", k); err != nil {
					return err
				}
			}
			return nil
		},
	}
	inspectCmd.Flags().BoolVar(&listKeys, "keys", false, "list every cached photo id")

	cacheCmd.AddCommand(inspectCmd)
	return cacheCmd
}
