package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/tui"
)

var tuiMax int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive comparison screen",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiMax, "max", core.DefaultMaxSelected, "maximum number of processors")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctrl, store, err := openCatalog(cmd.Context(), tuiMax)
	if err != nil {
		return err
	}

	reload := func(ctx context.Context) error {
		_, err := store.Load(ctx)
		return err
	}

	p := tea.NewProgram(
		tui.NewModel(ctrl, reload),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	_, err = p.Run()
	return err
}
