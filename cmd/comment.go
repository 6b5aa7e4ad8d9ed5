package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/tracker"
)

var commentAttachments []string

// commentCmd groups comment operations
var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage issue comments",
}

var commentListCmd = &cobra.Command{
	Use:   "list <issue>",
	Short: "List comments of an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comments, err := client.GetComments(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), comments, commentTable(comments))
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <issue> <text>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra tracker.Fields
		if len(commentAttachments) > 0 {
			extra = tracker.Fields{"attachment_ids": commentAttachments}
		}
		comment, err := client.PostComment(cmd.Context(), args[0], args[1], extra)
		if err != nil {
			return err
		}
		logger.Info().Str("issue", args[0]).Str("comment", comment.ID).Msg("Comment added")
		return render(cmd.OutOrStdout(), comment, commentTable([]tracker.Comment{*comment}))
	},
}

var commentEditCmd = &cobra.Command{
	Use:   "edit <issue> <comment-id> <text>",
	Short: "Replace the text of a comment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, err := client.EditComment(cmd.Context(), args[0], args[1], args[2], commentAttachments)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), comment, commentTable([]tracker.Comment{*comment}))
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <issue> <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.DeleteComment(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		logger.Info().Str("issue", args[0]).Str("comment", args[1]).Msg("Comment deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
	commentCmd.AddCommand(commentListCmd, commentAddCmd, commentEditCmd, commentDeleteCmd)

	commentAddCmd.Flags().StringSliceVar(&commentAttachments, "attachment", nil, "ids of uploaded temporary files")
	commentEditCmd.Flags().StringSliceVar(&commentAttachments, "attachment", nil, "ids of uploaded temporary files")
}

func commentTable(comments []tracker.Comment) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED\tTEXT")
		for _, c := range comments {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.CreatedBy, timeOrDash(&c.CreatedAt), truncate(c.Text, 70))
		}
	}
}
