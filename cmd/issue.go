package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/filter"
	"github.com/s0up4200/yatracker/tracker"
)

var (
	issueExpand    string
	issueQuery     string
	issueQueue     string
	issueKeys      []string
	issueOrder     string
	filterExpr     string
	preset         string
	issueFields    []string
	issueVersion   int
	createParams   tracker.CreateIssueParams
	createAssignee string
	moveOpts       tracker.MoveOptions
)

// issueCmd groups issue operations
var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Read, search, create and change issues",
}

var issueGetCmd = &cobra.Command{
	Use:   "get <issue>...",
	Short: "Show one or more issues by key or id",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIssueGet,
}

var issueFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Search issues and optionally filter them locally",
	Long: `Search issues with the Tracker query language, a queue or a list of keys.

Results can be narrowed further on the client with an expression (--filter)
or a named preset from the config file (--preset), for example:

  yatracker issue find --queue TEST --filter 'statusIs("open") and daysSince(UpdatedAt) > 30'`,
	RunE: runIssueFind,
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	RunE:  runIssueCreate,
}

var issueEditCmd = &cobra.Command{
	Use:   "edit <issue>",
	Short: "Change issue fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssueEdit,
}

var issueMoveCmd = &cobra.Command{
	Use:   "move <issue> <queue>",
	Short: "Move an issue to another queue",
	Args:  cobra.ExactArgs(2),
	RunE:  runIssueMove,
}

var issueCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count issues matching a query",
	RunE:  runIssueCount,
}

var issueLinksCmd = &cobra.Command{
	Use:   "links <issue>",
	Short: "List links of an issue",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssueLinks,
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(issueGetCmd, issueFindCmd, issueCreateCmd, issueEditCmd, issueMoveCmd, issueCountCmd, issueLinksCmd)

	issueGetCmd.Flags().StringVar(&issueExpand, "expand", "", "extra data to include (transitions, attachments)")

	issueFindCmd.Flags().StringVarP(&issueQuery, "query", "q", "", "Tracker query language expression")
	issueFindCmd.Flags().StringVar(&issueQueue, "queue", "", "queue key")
	issueFindCmd.Flags().StringSliceVar(&issueKeys, "keys", nil, "issue keys")
	issueFindCmd.Flags().StringVar(&issueOrder, "order", "", "sort field, prefixed with + or -")
	issueFindCmd.Flags().StringVar(&issueExpand, "expand", "", "extra data to include")
	issueFindCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "local filter expression")
	issueFindCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")

	issueCreateCmd.Flags().StringVar(&createParams.Queue, "queue", "", "queue key")
	issueCreateCmd.Flags().StringVar(&createParams.Summary, "summary", "", "issue summary")
	issueCreateCmd.Flags().StringVar(&createParams.Description, "description", "", "issue description")
	issueCreateCmd.Flags().StringVar(&createParams.Unique, "unique", "", "idempotency value; a second create with it fails")
	issueCreateCmd.Flags().StringVar(&createAssignee, "assignee", "", "assignee login")
	issueCreateCmd.Flags().StringSliceVar(&createParams.Followers, "followers", nil, "follower logins")
	issueCreateCmd.Flags().StringSliceVar(&createParams.AttachmentIDs, "attachment", nil, "ids of uploaded temporary files")
	issueCreateCmd.Flags().StringArrayVar(&issueFields, "field", nil, "extra field as key=value (value may be JSON)")
	issueCreateCmd.Flags().String("type", "", "issue type key")
	issueCreateCmd.Flags().String("priority", "", "priority key")
	issueCreateCmd.Flags().String("parent", "", "parent issue key")
	_ = issueCreateCmd.MarkFlagRequired("queue")
	_ = issueCreateCmd.MarkFlagRequired("summary")

	issueEditCmd.Flags().StringArrayVar(&issueFields, "field", nil, "field as key=value (value may be JSON other than null)")
	issueEditCmd.Flags().IntVar(&issueVersion, "version", 0, "expected issue version; the edit fails with a conflict when it differs")
	_ = issueEditCmd.MarkFlagRequired("field")

	issueMoveCmd.Flags().BoolVar(&moveOpts.NoNotify, "no-notify", false, "do not notify about the move")
	issueMoveCmd.Flags().BoolVar(&moveOpts.NotifyAuthor, "notify-author", false, "notify the issue author")
	issueMoveCmd.Flags().BoolVar(&moveOpts.MoveAllFields, "move-all-fields", false, "also move versions, components and projects")
	issueMoveCmd.Flags().BoolVar(&moveOpts.InitialStatus, "initial-status", false, "reset the status to the queue's initial one")
	issueMoveCmd.Flags().StringArrayVar(&issueFields, "field", nil, "field to set while moving as key=value")

	issueCountCmd.Flags().StringVarP(&issueQuery, "query", "q", "", "Tracker query language expression")
	issueCountCmd.Flags().StringVar(&issueQueue, "queue", "", "queue key")
}

func runIssueGet(cmd *cobra.Command, args []string) error {
	issues, err := client.GetIssues(cmd.Context(), args, issueExpand)
	if err != nil {
		return err
	}
	if len(issues) == 1 {
		return render(cmd.OutOrStdout(), issues[0], issueDetails(issues[0]))
	}
	return render(cmd.OutOrStdout(), issues, issueTable(issues))
}

func runIssueFind(cmd *cobra.Command, args []string) error {
	if filterExpr != "" && preset != "" {
		return fmt.Errorf("use either --filter or --preset, not both")
	}

	ctx := cmd.Context()
	params := tracker.SearchParams{
		Query:  issueQuery,
		Queue:  issueQueue,
		Keys:   issueKeys,
		Order:  issueOrder,
		Expand: issueExpand,
	}

	logger.Info().Str("query", issueQuery).Str("queue", issueQueue).Msg("Searching issues")
	issues, err := client.FindIssues(ctx, params)
	if err != nil {
		return err
	}

	if filterExpr != "" || preset != "" {
		issues, err = applyFilter(ctx, issues)
		if err != nil {
			return err
		}
	}

	if cfg.Output.Format == formatTable && len(issues) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No issues found matching the criteria.")
		return nil
	}
	return render(cmd.OutOrStdout(), issues, issueTable(issues))
}

// applyFilter narrows issues with --filter or a configured --preset
func applyFilter(ctx context.Context, issues []tracker.FullIssue) ([]tracker.FullIssue, error) {
	manager := filter.NewManager(filter.WithManagerLogger(logger))
	defer manager.Close(context.Background())

	if filterExpr != "" {
		compiled, err := manager.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		logger.Debug().Str("filter", compiled.Expression()).Int("issues", len(issues)).Msg("Applying filter")
		return manager.Evaluate(ctx, compiled, issues)
	}

	// viper lower-cases map keys
	expression, ok := cfg.Filter[strings.ToLower(preset)]
	if !ok {
		return nil, fmt.Errorf("preset '%s' not found in config", preset)
	}
	if err := manager.RegisterFilter(preset, expression); err != nil {
		return nil, err
	}
	logger.Debug().Str("preset", preset).Int("issues", len(issues)).Msg("Applying preset")
	return manager.EvaluateFilter(ctx, preset, issues)
}

func runIssueCreate(cmd *cobra.Command, args []string) error {
	extra, err := parseFields(issueFields)
	if err != nil {
		return err
	}
	if createAssignee != "" {
		if extra == nil {
			extra = tracker.Fields{}
		}
		extra["assignee"] = createAssignee
	}

	params := createParams
	params.Extra = extra
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		params.Type = v
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		params.Priority = v
	}
	if v, _ := cmd.Flags().GetString("parent"); v != "" {
		params.Parent = v
	}

	issue, err := client.CreateIssue(cmd.Context(), params)
	if err != nil {
		if tracker.IsConflict(err) {
			return fmt.Errorf("an issue with unique value '%s' already exists: %w", params.Unique, err)
		}
		return err
	}
	logger.Info().Str("issue", issue.Key).Msg("Issue created")
	return render(cmd.OutOrStdout(), issue, issueDetails(*issue))
}

func runIssueEdit(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(issueFields)
	if err != nil {
		return err
	}
	issue, err := client.EditIssue(cmd.Context(), args[0], issueVersion, fields)
	if err != nil {
		return err
	}
	logger.Info().Str("issue", issue.Key).Int("version", issue.Version).Msg("Issue updated")
	return render(cmd.OutOrStdout(), issue, issueDetails(*issue))
}

func runIssueMove(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(issueFields)
	if err != nil {
		return err
	}
	issue, err := client.MoveIssue(cmd.Context(), args[0], args[1], moveOpts, fields)
	if err != nil {
		return err
	}
	logger.Info().Str("from", args[0]).Str("to", issue.Key).Msg("Issue moved")
	return render(cmd.OutOrStdout(), issue, issueDetails(*issue))
}

func runIssueCount(cmd *cobra.Command, args []string) error {
	q := tracker.IssueQuery{Query: issueQuery}
	if issueQueue != "" {
		q.Filter = map[string]any{"queue": issueQueue}
	}
	n, err := client.CountIssues(cmd.Context(), q)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), map[string]int{"count": n}, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, n)
	})
}

func runIssueLinks(cmd *cobra.Command, args []string) error {
	links, err := client.GetIssueLinks(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), links, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tLINK\tISSUE\tSUMMARY")
		for _, link := range links {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", link.ID, link.Name(), link.Object.Key, truncate(link.Object.Display, 60))
		}
	})
}

func issueDetails(issue tracker.FullIssue) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Key:\t%s\n", issue.Key)
		fmt.Fprintf(tw, "Summary:\t%s\n", issue.Summary)
		fmt.Fprintf(tw, "Queue:\t%s\n", issue.Queue)
		fmt.Fprintf(tw, "Status:\t%s\n", issue.Status)
		fmt.Fprintf(tw, "Type:\t%s\n", issue.Type)
		fmt.Fprintf(tw, "Priority:\t%s\n", issue.Priority)
		fmt.Fprintf(tw, "Assignee:\t%s\n", userOrDash(issue.Assignee))
		fmt.Fprintf(tw, "Author:\t%s\n", issue.CreatedBy)
		fmt.Fprintf(tw, "Created:\t%s\n", timeOrDash(&issue.CreatedAt))
		fmt.Fprintf(tw, "Updated:\t%s\n", timeOrDash(issue.UpdatedAt))
		fmt.Fprintf(tw, "Version:\t%d\n", issue.Version)
		if issue.Description != "" {
			fmt.Fprintf(tw, "\n%s\n", issue.Description)
		}
	}
}

// parseFields turns key=value pairs into fields. Values that parse as
// JSON keep their type; anything else is sent as a string. A JSON null
// is rejected because unset values never reach the request body.
func parseFields(pairs []string) (tracker.Fields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(tracker.Fields, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid field '%s': expected key=value", pair)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		if parsed == nil {
			return nil, fmt.Errorf("invalid field '%s': null values are never sent; pass \"\" to clear a text field", pair)
		}
		fields[strings.TrimSpace(key)] = parsed
	}
	return fields, nil
}
