package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/tui"
)

var (
	sortColumn  string
	sortDesc    bool
	maxSelected int
	asJSON      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <name>...",
	Short: "Compare processors by exact catalog name",
	Example: `  cpucompare compare "Ryzen 5 3600" "Core i9-9900K" --sort Cores --desc
  cpucompare compare "Ryzen 5 3600" "Ryzen 7 3700X" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&sortColumn, "sort", "s", "", "sort rows by this column")
	compareCmd.Flags().BoolVar(&sortDesc, "desc", false, "sort descending")
	compareCmd.Flags().IntVar(&maxSelected, "max", core.DefaultMaxSelected, "maximum number of processors")
	compareCmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison model as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctrl, _, err := openCatalog(cmd.Context(), maxSelected)
	if err != nil {
		return err
	}

	var rejected error
	for _, name := range args {
		res := ctrl.Select(name)
		if !res.OK() {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Message())
			rejected = errors.Join(rejected, core.AddResultError(res))
		}
	}
	if len(ctrl.SelectedNames()) == 0 {
		return rejected
	}

	if sortColumn != "" {
		if _, err := ctrl.ToggleSort(sortColumn); err != nil {
			return err
		}
		if sortDesc {
			if _, err := ctrl.ToggleSort(sortColumn); err != nil {
				return err
			}
		}
	}

	model := ctrl.ComparisonModel()
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(model)
	}
	fmt.Fprintln(out, tui.RenderComparison(model, 0))
	return nil
}
