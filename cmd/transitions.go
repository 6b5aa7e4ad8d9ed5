package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/tracker"
)

var (
	transitionComment    string
	transitionResolution string
)

// transitionsCmd groups workflow transition operations
var transitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "List and execute workflow transitions",
}

var transitionsListCmd = &cobra.Command{
	Use:   "list <issue>",
	Short: "List transitions available for an issue",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransitionsList,
}

var transitionsExecuteCmd = &cobra.Command{
	Use:   "execute <issue> <transition>",
	Short: "Move an issue through a transition",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransitionsExecute,
}

func init() {
	rootCmd.AddCommand(transitionsCmd)
	transitionsCmd.AddCommand(transitionsListCmd, transitionsExecuteCmd)

	transitionsExecuteCmd.Flags().StringVar(&transitionComment, "comment", "", "comment to add with the transition")
	transitionsExecuteCmd.Flags().StringVar(&transitionResolution, "resolution", "", "resolution key, required by closing transitions")
	transitionsExecuteCmd.Flags().StringArrayVar(&issueFields, "field", nil, "extra field as key=value (value may be JSON)")
}

func runTransitionsList(cmd *cobra.Command, args []string) error {
	ts, err := client.GetTransitions(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	list := make([]*tracker.Transition, 0, ts.Len())
	for t := range ts.All() {
		list = append(list, t)
	}
	return render(cmd.OutOrStdout(), list, transitionTable(list))
}

func runTransitionsExecute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ts, err := client.GetTransitions(ctx, args[0])
	if err != nil {
		return err
	}
	t, ok := ts.Get(args[1])
	if !ok {
		return fmt.Errorf("transition '%s' is not available for %s (available: %v)", args[1], args[0], ts.Keys())
	}

	extra, err := parseFields(issueFields)
	if err != nil {
		return err
	}
	if transitionComment != "" || transitionResolution != "" {
		if extra == nil {
			extra = tracker.Fields{}
		}
		if transitionComment != "" {
			extra["comment"] = transitionComment
		}
		if transitionResolution != "" {
			extra["resolution"] = transitionResolution
		}
	}

	next, err := t.Execute(ctx, extra)
	if err != nil {
		return err
	}
	logger.Info().Str("issue", args[0]).Str("transition", t.ID).Str("status", t.To.Key).Msg("Transition executed")

	list := make([]*tracker.Transition, len(next))
	for i := range next {
		list[i] = &next[i]
	}
	return render(cmd.OutOrStdout(), list, transitionTable(list))
}

func transitionTable(list []*tracker.Transition) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tTO STATUS")
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t, t.To)
		}
	}
}
