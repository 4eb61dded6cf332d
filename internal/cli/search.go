package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "List processors whose name contains every word of the query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", core.DefaultSearchLimit, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctrl, _, err := openCatalog(cmd.Context(), 0)
	if err != nil {
		return err
	}

	results := core.Search(ctrl.Catalog(), strings.Join(args, " "), searchLimit)
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "Nothing found")
		return nil
	}
	for _, rec := range results {
		fmt.Fprintf(out, "%s\t%d cores\t%s\n", rec.Name, rec.EffectiveCores, core.FormatGHz(rec.MaxClockGHz))
	}
	return nil
}
