package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/curriculum"
	screen "github.com/abhisek/mathquest/internal/screens/session"
	"github.com/abhisek/mathquest/internal/session"
)

const summaryWidth = 72

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session in the terminal",
	Long: `Start a practice session. Type an answer and press Enter.
Tab shows a hint and Esc ends the session early.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		opts, err := sessionOptions(cmd, d)
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), d, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func sessionOptions(cmd *cobra.Command, d *deps) (session.Options, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := session.ParseMode(modeFlag)
	if err != nil {
		return session.Options{}, err
	}
	gradeFlag, _ := cmd.Flags().GetString("grade")
	if gradeFlag == "" {
		gradeFlag = cfg.Challenge.DefaultGrade
	}
	grade, err := curriculum.ParseGrade(gradeFlag)
	if err != nil {
		return session.Options{}, err
	}
	modules, _ := cmd.Flags().GetStringSlice("modules")

	opts := session.Options{UserID: userFlag(cmd), Mode: mode, Grade: grade, Modules: modules}
	if mode.IsChallenge() {
		code, _ := cmd.Flags().GetString("challenge")
		if code == "" {
			return session.Options{}, fmt.Errorf("--challenge is required in %s mode", mode)
		}
		ch, err := d.challenges.Get(cmd.Context(), code)
		if err != nil {
			return session.Options{}, err
		}
		opts.Challenge = &ch
	}
	return opts, nil
}

func userFlag(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}

// runSession runs one session as a full-screen terminal program and prints
// the summary once it exits.
func runSession(ctx context.Context, d *deps, opts session.Options, r io.Reader, w io.Writer) error {
	m := screen.New(ctx, d.sessions, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(r), tea.WithOutput(w))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run session: %w", err)
	}

	fm, ok := final.(screen.Model)
	if !ok {
		return nil
	}
	if err := fm.Err(); err != nil {
		return err
	}
	if sum := fm.State().Summary; sum != nil {
		fmt.Fprintln(w, screen.RenderSummary(*sum, summaryWidth))
	}
	return nil
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "Learner id (defaults to $USER)")
	cmd.Flags().String("grade", "", "Grade band or grade, e.g. 4-5 or 4")
}

func init() {
	addSessionFlags(playCmd)
	playCmd.Flags().String("mode", string(session.ModePlay), "play, test, challenge_creator or challenge_opponent")
	playCmd.Flags().StringSlice("modules", nil, "Modules to practice, e.g. arithmetic,fractions (default: all for the grade)")
	playCmd.Flags().String("challenge", "", "Challenge code for the challenge modes")
}
