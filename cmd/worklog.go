package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/tracker"
)

var (
	worklogStart   string
	worklogComment string
	localized      bool
)

// worklogCmd groups time tracking operations
var worklogCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Record time spent on issues",
}

var worklogAddCmd = &cobra.Command{
	Use:   "add <issue> <duration>",
	Short: "Add a worklog record",
	Long: `Add a worklog record. The duration is either ISO 8601 (PT1H30M, P1D) or
a Go duration (1h30m).`,
	Args: cobra.ExactArgs(2),
	RunE: runWorklogAdd,
}

// prioritiesCmd lists the organization's priorities
var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "List priorities",
	RunE: func(cmd *cobra.Command, args []string) error {
		priorities, err := client.GetPriorities(cmd.Context(), localized)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), priorities, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ORDER\tKEY\tNAME")
			for _, p := range priorities {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Order, p.Key, p)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(worklogCmd, prioritiesCmd)
	worklogCmd.AddCommand(worklogAddCmd)

	worklogAddCmd.Flags().StringVar(&worklogStart, "start", "", "start time in RFC 3339 (default now)")
	worklogAddCmd.Flags().StringVar(&worklogComment, "comment", "", "worklog comment")

	prioritiesCmd.Flags().BoolVar(&localized, "localized", true, "return names in the account language only")
}

func runWorklogAdd(cmd *cobra.Command, args []string) error {
	duration, err := parseWorkDuration(args[1])
	if err != nil {
		return err
	}

	start := time.Now()
	if worklogStart != "" {
		start, err = time.Parse(time.RFC3339, worklogStart)
		if err != nil {
			return fmt.Errorf("invalid start time '%s': %w", worklogStart, err)
		}
	}

	var extra tracker.Fields
	if worklogComment != "" {
		extra = tracker.Fields{"comment": worklogComment}
	}

	wl, err := client.PostWorklog(cmd.Context(), args[0], start, duration, extra)
	if err != nil {
		return err
	}
	logger.Info().Str("issue", args[0]).Str("duration", wl.Duration.String()).Msg("Worklog added")
	return render(cmd.OutOrStdout(), wl, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%d\n", wl.ID)
		fmt.Fprintf(tw, "Issue:\t%s\n", wl.Issue.Key)
		fmt.Fprintf(tw, "Start:\t%s\n", timeOrDash(&wl.Start))
		fmt.Fprintf(tw, "Duration:\t%s\n", wl.Duration)
	})
}

func parseWorkDuration(s string) (tracker.Duration, error) {
	if d, err := tracker.ParseDuration(s); err == nil && !d.Negative {
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return tracker.Duration{}, fmt.Errorf("invalid duration '%s': use ISO 8601 (PT1H30M) or 1h30m", s)
	}
	return tracker.DurationOf(d), nil
}
