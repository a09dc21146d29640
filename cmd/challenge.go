package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/session"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Create, join and follow two-player challenges",
}

var challengeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a challenge and print its code",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		gradeFlag, _ := cmd.Flags().GetString("grade")
		if gradeFlag == "" {
			gradeFlag = cfg.Challenge.DefaultGrade
		}
		grade, err := curriculum.ParseGrade(gradeFlag)
		if err != nil {
			return err
		}
		modules, _ := cmd.Flags().GetStringSlice("modules")
		ops, err := curriculum.OperationsFor(modules, grade)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			count = cfg.Challenge.QuestionCount
		}

		c, err := d.challenges.Create(cmd.Context(), userFlag(cmd), grade, ops, count)
		if err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Challenge code: %s\n", c.Code)
		fmt.Fprintf(out, "%d questions, grade %s. Share the code, then run:\n", len(c.Questions), c.Grade)
		fmt.Fprintf(out, "  mathquest play --mode %s --challenge %s --user %s\n", session.ModeChallengeCreator, c.Code, c.CreatorID)
		return nil
	},
}

var challengeJoinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a challenge as the opponent and play it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		user := userFlag(cmd)
		c, err := d.challenges.Join(ctx, args[0], user)
		if err != nil {
			return fmt.Errorf("join challenge: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Joined %s against %s.\n", c.Code, c.CreatorID)

		if noPlay, _ := cmd.Flags().GetBool("no-play"); noPlay {
			return nil
		}
		return runSession(ctx, d, session.Options{
			UserID:    user,
			Mode:      session.ModeChallengeOpponent,
			Challenge: &c,
		}, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var challengeShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show a challenge scoreboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		if watch, _ := cmd.Flags().GetBool("watch"); !watch {
			c, err := d.challenges.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printScoreboard(out, c)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		updates, cancel, err := d.challenges.Subscribe(ctx, args[0])
		if err != nil {
			return err
		}
		defer cancel()
		for c := range updates {
			printScoreboard(out, c)
			if c.Status == challenge.StatusCompleted {
				return nil
			}
		}
		return nil
	},
}

func printScoreboard(w io.Writer, c challenge.Challenge) {
	sb := challenge.Score(c)
	opponent := c.OpponentID
	if opponent == "" {
		opponent = "(waiting)"
	}
	fmt.Fprintf(w, "[%s] %s  %s %d/%d correct (%d answered)  vs  %s %d/%d correct (%d answered)",
		sb.Code, sb.Status,
		c.CreatorID, sb.CreatorCorrect, sb.Total, sb.CreatorAnswered,
		opponent, sb.OpponentCorrect, sb.Total, sb.OpponentAnswered)
	switch sb.Winner {
	case "":
	case "tie":
		fmt.Fprint(w, "  result: tie")
	case string(challenge.RoleCreator):
		fmt.Fprintf(w, "  winner: %s", c.CreatorID)
	default:
		fmt.Fprintf(w, "  winner: %s", c.OpponentID)
	}
	fmt.Fprintln(w)
}

func init() {
	addSessionFlags(challengeCreateCmd)
	challengeCreateCmd.Flags().StringSlice("modules", nil, "Modules to draw questions from (default: all for the grade)")
	challengeCreateCmd.Flags().IntP("count", "n", 0, "Number of questions (default from config)")

	challengeJoinCmd.Flags().String("user", "", "Learner id (defaults to $USER)")
	challengeJoinCmd.Flags().Bool("no-play", false, "Join without starting the session")

	challengeShowCmd.Flags().BoolP("watch", "w", false, "Follow live updates until the challenge completes")

	challengeCmd.AddCommand(challengeCreateCmd)
	challengeCmd.AddCommand(challengeJoinCmd)
	challengeCmd.AddCommand(challengeShowCmd)
}
