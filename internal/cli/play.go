package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"qcm-runner/internal/config"
	"qcm-runner/internal/tui"
)

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		sources []string
		profile string
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			if profile == "" {
				profile = cfg.Quiz.Profile
			}
			d, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			session := d.quizService().NewSession(profile)
			defer session.Close()

			if len(sources) > 0 {
				err = session.ChangeSourceSelection(cmd.Context(), sources)
			} else {
				err = session.Open(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("load questions: %w", err)
			}

			// Warnings are part of the view; log lines would tear the alternate screen.
			log.SetOutput(io.Discard)
			defer log.SetOutput(os.Stderr)
			return tui.Run(session, cmd.OutOrStdout(), tui.Options{NoColor: noColor})
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "source ids to play (default: last selection)")
	cmd.Flags().StringVar(&profile, "profile", "", "preference profile (default: quiz.profile)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}
