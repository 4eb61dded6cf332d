package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/core"
)

var (
	exportAll    bool
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [name]...",
	Short: "Write a CSV summary with derived core counts and clocks",
	Long: `Export writes name, cores, effective_cores, clock and max_clock_ghz for
the named processors, or for the whole catalog with --all.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVarP(&exportAll, "all", "a", false, "export every processor in the catalog")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if !exportAll && len(args) == 0 {
		return fmt.Errorf("name at least one processor or pass --all")
	}

	ctrl, _, err := openCatalog(cmd.Context(), len(args))
	if err != nil {
		return err
	}

	records := ctrl.Catalog().Records()
	if !exportAll {
		for _, name := range args {
			if res := ctrl.Select(name); !res.OK() {
				return core.AddResultError(res)
			}
		}
		records = ctrl.Selected()
	}

	w := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return catalog.Export(w, records)
}
