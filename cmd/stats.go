package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/reward"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		user := userFlag(cmd)
		gradeFlag, _ := cmd.Flags().GetString("grade")
		if gradeFlag == "" {
			gradeFlag = cfg.Challenge.DefaultGrade
		}
		grade, err := curriculum.ParseGrade(gradeFlag)
		if err != nil {
			return err
		}

		history, err := d.store.History(ctx, user)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		rs, err := d.rewards.State(ctx, user)
		if err != nil {
			return fmt.Errorf("load rewards: %w", err)
		}
		stats := progress.Compute(history, grade, time.Now())

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 48)
		fmt.Fprintf(out, "Stats for %s (grade %s)\n%s\n", user, grade, sep)
		fmt.Fprintf(out, "Level:      %d (%d XP, %d to next)\n", rs.Level, rs.TotalXP, reward.XPToNextLevel(rs.TotalXP))
		fmt.Fprintf(out, "Today:      %d / %d questions\n", todayCount(rs), rs.DailyGoal)
		fmt.Fprintf(out, "Answered:   %d (%d correct, %d%%)\n", stats.TotalQuestions, stats.CorrectAnswers, stats.Accuracy)
		fmt.Fprintf(out, "Day streak: %d\n", stats.Streak)
		fmt.Fprintf(out, "Difficulty: %s\n", stats.Difficulty.Tier)

		if len(stats.WeakAreas) > 0 {
			fmt.Fprintf(out, "\n%-18s  %9s  %8s\n", "Operation", "Attempted", "Accuracy")
			for _, op := range stats.WeakAreas {
				fmt.Fprintf(out, "%-18s  %9d  %7.0f%%\n", op.Operation.DisplayName(), op.Attempted, op.AccuracyPct)
			}
		}

		recent, err := d.store.RecentSummaries(ctx, user, 5)
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		if len(recent) > 0 {
			fmt.Fprintf(out, "\nRecent sessions\n%s\n", sep)
			for _, r := range recent {
				fmt.Fprintf(out, "%s  %-18s  %2d/%-2d  %3d%%  %s\n",
					r.EndedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.Score, r.Total, r.Percentage, r.LetterGrade)
			}
		}
		return nil
	},
}

// todayCount hides yesterday's counter once the day has rolled over.
func todayCount(rs reward.State) int {
	if rs.LastActiveDate != time.Now().Format(reward.DateLayout) {
		return 0
	}
	return rs.DailyQuestionCount
}

func init() {
	addSessionFlags(statsCmd)
}
