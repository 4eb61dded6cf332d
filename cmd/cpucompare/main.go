package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/cpucompare/internal/cli"
	"github.com/JonMunkholm/cpucompare/internal/core"
)

func main() {
	if err := cli.Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
			slog.Debug("command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
