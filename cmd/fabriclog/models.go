package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/fabriclog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the configured candidates and which one would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		available, err := a.extractor.AvailableModels(ctx)
		if err != nil {
			a.log.Warn("Could not list models", "error", err)
		}
		selected, err := a.extractor.NewModelSelector().Select(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, m := range a.settings.Models {
			mark := " "
			if m == string(selected) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-32s %s\n", mark, m, modelStatus(available, m))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func modelStatus(available []string, m string) string {
	if fabriclog.ModelListed(available, m) {
		return "available"
	}
	return "not listed"
}
