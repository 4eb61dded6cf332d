// Package cli implements the cpucompare command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/config"
	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/logging"
)

var (
	csvPath     string
	columnsFile string
	logLevel    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cpucompare",
	Short: "Search a CPU catalog and compare processors side by side",
	Long: `cpucompare reads a CSV catalog of processors and lets you search it,
compare up to five CPUs in a table that highlights the best and worst
values, and export a summary.

The catalog is a local file or an http(s) URL, taken from --csv or the
CATALOG_SOURCE environment variable.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&csvPath, "csv", "c", "", "catalog file or URL (default from CATALOG_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&columnsFile, "columns", "", "column policy YAML (default from COLUMNS_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found", "error", err)
	}
}

// setup configures logging on stderr and fills unset flags from the
// environment.
func setup(cmd *cobra.Command, _ []string) error {
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))

	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c

	if csvPath == "" {
		csvPath = cfg.Catalog.Source
	}
	if columnsFile == "" {
		columnsFile = cfg.Catalog.ColumnsFile
	}
	return nil
}

// openCatalog loads the catalog and returns a controller over it together
// with the store, for commands that reload.
func openCatalog(ctx context.Context, maxSelected int) (*core.Controller, *catalog.Store, error) {
	policy, err := core.LoadColumnPolicyFile(columnsFile)
	if err != nil {
		return nil, nil, err
	}

	src := catalog.Source{Location: csvPath}
	if cfg != nil {
		src.MaxSize = cfg.Catalog.MaxSize
		src.Timeout = cfg.Catalog.FetchTimeout
	}
	store := catalog.NewStore(src, nil, catalog.WithLogger(slog.Default()))
	if _, err := store.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", src, err)
	}

	ctrl := core.NewController(store.Holder(), core.Options{
		MaxSelected: maxSelected,
		Policy:      policy,
	})
	return ctrl, store, nil
}
