package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/tracker"
)

var (
	queueExpand  string
	queuePerPage int
)

// queueCmd groups queue operations
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect queues",
}

var queueGetCmd = &cobra.Command{
	Use:   "get <queue>",
	Short: "Show a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := client.GetQueue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), q, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "Key:\t%s\n", q.Key)
			fmt.Fprintf(tw, "Name:\t%s\n", q.Name)
			fmt.Fprintf(tw, "Lead:\t%s\n", q.Lead)
			fmt.Fprintf(tw, "Default type:\t%s\n", q.DefaultType)
			fmt.Fprintf(tw, "Default priority:\t%s\n", q.DefaultPriority)
			fmt.Fprintf(tw, "Issue types:\t%d\n", len(q.IssueTypes))
			fmt.Fprintf(tw, "Team size:\t%d\n", len(q.TeamUsers))
		})
	},
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queues",
	RunE: func(cmd *cobra.Command, args []string) error {
		queues, err := client.GetQueues(cmd.Context(), queueExpand, queuePerPage)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), queues, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "KEY\tNAME\tLEAD")
			for _, q := range queues {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", q.Key, q.Name, q.Lead)
			}
		})
	},
}

var queueFieldsCmd = &cobra.Command{
	Use:   "fields <queue>",
	Short: "List fields available in a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := client.GetQueueFields(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), fields, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tREADONLY")
			for _, f := range fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", f.ID, f, f.Schema.Type, f.Readonly)
			}
		})
	},
}

var queueVersionsCmd = &cobra.Command{
	Use:   "versions <queue>",
	Short: "List versions of a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := client.GetQueueVersions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), versions, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNAME\tSTART\tDUE\tRELEASED")
			for _, v := range versions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", v.ID, v, dateOrDash(v.StartDate), dateOrDash(v.DueDate), v.Released)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueGetCmd, queueListCmd, queueFieldsCmd, queueVersionsCmd)

	queueListCmd.Flags().StringVar(&queueExpand, "expand", "", "extra data to include (all, projects, components, versions, types, team, workflows)")
	queueListCmd.Flags().IntVar(&queuePerPage, "per-page", 0, "page size requested from the API")
}

func dateOrDash(d *tracker.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.Format(tracker.DateLayout)
}
