package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sampleapps/internal/model"
	"sampleapps/internal/service/conspiracy"
	"sampleapps/internal/service/flashcard"
	"sampleapps/internal/service/habit"
)

func newStreakCmd() *cobra.Command {
	var dates []string
	var today string

	cmd := &cobra.Command{
		Use:     "streak",
		Short:   "Compute streaks for a list of check-in dates",
		Example: `  samplectl streak --dates 2026-10-16,2026-10-17,2026-10-18 --today 2026-10-18`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := model.Day(time.Now(), nil)
			if today != "" {
				d, err := model.ParseDay(today)
				if err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
				now = d
			}

			days := make([]time.Time, 0, len(dates))
			for _, s := range dates {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				d, err := model.ParseDay(s)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", s, err)
				}
				days = append(days, d)
			}

			st := habit.Compute(0, days, now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current: %d\n", st.CurrentStreak)
			fmt.Fprintf(out, "longest: %d\n", st.LongestStreak)
			fmt.Fprintf(out, "total:   %d\n", st.TotalCheckIns)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&dates, "dates", nil, "check-in days, YYYY-MM-DD")
	cmd.Flags().StringVar(&today, "today", "", "reference day, YYYY-MM-DD (default: today, UTC)")
	return cmd
}

func newSM2Cmd() *cobra.Command {
	var (
		ef       float64
		interval int
		reps     int
	)
	cmd := &cobra.Command{
		Use:   "sm2 <quality>...",
		Short: "Replay a sequence of review grades through SM-2",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := flashcard.Schedule{EaseFactor: ef, IntervalDays: interval, Repetitions: reps}
			out := cmd.OutOrStdout()
			for _, a := range args {
				var q int
				if _, err := fmt.Sscan(a, &q); err != nil {
					return fmt.Errorf("invalid quality %q", a)
				}
				next, err := flashcard.Next(s, q)
				if err != nil {
					return err
				}
				s = next
				fmt.Fprintf(out, "q=%d ef=%.2f interval=%d reps=%d\n", q, s.EaseFactor, s.IntervalDays, s.Repetitions)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&ef, "ef", flashcard.DefaultEaseFactor, "starting ease factor")
	cmd.Flags().IntVar(&interval, "interval", 0, "starting interval in days")
	cmd.Flags().IntVar(&reps, "reps", 0, "starting repetitions")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <score>",
		Short: "Show the conspiracy level for a score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var score int
			if _, err := fmt.Sscan(args[0], &score); err != nil {
				return fmt.Errorf("invalid score %q", args[0])
			}
			lvl, err := conspiracy.Classify(score)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d-%d): %s\n", lvl.Name, lvl.Min, lvl.Max, lvl.Description)
			return nil
		},
	}
}
