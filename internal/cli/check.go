package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"qcm-runner/internal/bank"
	"qcm-runner/internal/config"
)

// NewCheckCmd loads and validates the selected sources without running a quiz.
func NewCheckCmd(configPath *string) *cobra.Command {
	var sources []string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate question sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()
			return runCheck(cmd, d.loader, sources)
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "source ids to check (default: all)")
	return cmd
}

func runCheck(cmd *cobra.Command, loader *bank.Loader, ids []string) error {
	res, err := loader.Load(cmd.Context(), ids)
	if err != nil {
		return err
	}
	questions, err := bank.Validate(res.Questions)
	if err != nil {
		return fmt.Errorf("%s: %w", loader.SelectionLabel(res.Selection), err)
	}
	printCheck(cmd.OutOrStdout(), loader.SelectionLabel(res.Selection), len(questions), res.Warnings())
	return nil
}

func printCheck(w io.Writer, label string, size int, warnings []string) {
	fmt.Fprintf(w, "%s: %d questions\n", label, size)
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
