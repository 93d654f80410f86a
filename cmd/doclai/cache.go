package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/doclai/cache"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Export or import the translation cache",
	}
	cmd.AddCommand(newCacheExportCmd(flags), newCacheImportCmd(flags))
	return cmd
}

func newCacheExportCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the file cache as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Cache.Path == "" {
				return errors.New("no cache file configured (cache.path)")
			}
			fc, err := cache.OpenFileCache(cfg.Cache.Path)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output) // #nosec G304 - user-selected output file
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return cache.NewExporter(fc).Export(w, map[string]string{"source": fc.Path()})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newCacheImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load an exported cache into the configured cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())

			c, err := openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if c == nil {
				return errors.New("no cache configured (cache.path or cache.redis_url)")
			}
			defer closeCache(c, log)

			f, err := os.Open(args[0]) // #nosec G304 - user-selected input file
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			result, err := cache.NewImporter(c).Import(f)
			if err != nil {
				return err
			}
			log.Info("cache imported", "version", result.Version, "imported", result.Imported, "failed", result.Failed)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, %d failed\n", result.Imported, result.Failed)
			return nil
		},
	}
}
