package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/tracker"
)

var (
	attachmentName string
	attachmentTemp bool
	attachmentDest string
)

// attachmentCmd groups file operations
var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Manage issue attachments",
}

var attachmentListCmd = &cobra.Command{
	Use:   "list <issue>",
	Short: "List files attached to an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		attachments, err := client.GetAttachments(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), attachments, attachmentTable(attachments))
	},
}

var attachmentUploadCmd = &cobra.Command{
	Use:   "upload [issue] <file>",
	Short: "Attach a file to an issue, or upload a temporary file with --temp",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAttachmentUpload,
}

var attachmentDownloadCmd = &cobra.Command{
	Use:   "download <issue> <attachment-id> <filename>",
	Short: "Download an attached file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := client.DownloadAttachment(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		dest := attachmentDest
		if dest == "" {
			dest = filepath.Base(args[2])
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		logger.Info().Str("file", dest).Int("bytes", len(data)).Msg("Attachment downloaded")
		return nil
	},
}

var attachmentDeleteCmd = &cobra.Command{
	Use:   "delete <issue> <attachment-id>",
	Short: "Delete an attached file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.DeleteAttachment(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		logger.Info().Str("issue", args[0]).Str("attachment", args[1]).Msg("Attachment deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachmentCmd)
	attachmentCmd.AddCommand(attachmentListCmd, attachmentUploadCmd, attachmentDownloadCmd, attachmentDeleteCmd)

	attachmentUploadCmd.Flags().StringVar(&attachmentName, "name", "", "file name to store (default is the local name)")
	attachmentUploadCmd.Flags().BoolVar(&attachmentTemp, "temp", false, "upload without attaching; use the id when creating issues or comments")
	attachmentDownloadCmd.Flags().StringVar(&attachmentDest, "dest", "", "destination path (default is the attachment name)")
}

func runAttachmentUpload(cmd *cobra.Command, args []string) error {
	if attachmentTemp != (len(args) == 1) {
		return fmt.Errorf("pass an issue and a file, or only a file with --temp")
	}
	path := args[len(args)-1]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := attachmentName
	if name == "" {
		name = filepath.Base(path)
	}

	var att *tracker.Attachment
	if attachmentTemp {
		att, err = client.UploadTempFile(cmd.Context(), f, name)
	} else {
		att, err = client.AttachFile(cmd.Context(), args[0], f, name)
	}
	if err != nil {
		return err
	}
	logger.Info().Str("attachment", att.ID).Int64("size", att.Size).Msg("File uploaded")
	return render(cmd.OutOrStdout(), att, attachmentTable([]tracker.Attachment{*att}))
}

func attachmentTable(attachments []tracker.Attachment) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tAUTHOR")
		for _, a := range attachments {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", a.ID, a, a.Size, a.Mimetype, a.CreatedBy)
		}
	}
}
