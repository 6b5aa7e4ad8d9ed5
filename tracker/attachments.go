package tracker

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// attachmentField is the form field the API reads uploads from.
const attachmentField = "file_data"

// GetAttachments lists the files attached to an issue.
func (c *Client) GetAttachments(ctx context.Context, issueID string) ([]Attachment, error) {
	return call[[]Attachment](ctx, c, http.MethodGet, "/issues/"+issueID+"/attachments", nil, nil)
}

// DownloadAttachment returns the content of an attached file.
func (c *Client) DownloadAttachment(ctx context.Context, issueID, attachmentID, filename string) ([]byte, error) {
	uri := "/issues/" + issueID + "/attachments/" + attachmentID + "/" + url.PathEscape(filename)
	return c.conn.Request(ctx, http.MethodGet, uri, nil, nil)
}

// DownloadThumbnail returns the preview image of an attached file.
func (c *Client) DownloadThumbnail(ctx context.Context, issueID, attachmentID string) ([]byte, error) {
	return c.conn.Request(ctx, http.MethodGet, "/issues/"+issueID+"/thumbnails/"+attachmentID, nil, nil)
}

// AttachFile uploads content and attaches it to an issue. An empty
// filename lets the server pick one.
func (c *Client) AttachFile(ctx context.Context, issueID string, content io.Reader, filename string) (*Attachment, error) {
	return c.upload(ctx, "/issues/"+issueID+"/attachments", content, filename)
}

// UploadTempFile uploads a file that is not attached anywhere yet. Its id
// can be passed as an attachment id when creating an issue or comment.
func (c *Client) UploadTempFile(ctx context.Context, content io.Reader, filename string) (*Attachment, error) {
	return c.upload(ctx, "/attachments/", content, filename)
}

// DeleteAttachment deletes an attached file.
func (c *Client) DeleteAttachment(ctx context.Context, issueID, attachmentID string) error {
	return exec(ctx, c, http.MethodDelete, "/issues/"+issueID+"/attachments/"+attachmentID+"/", nil, nil)
}

func (c *Client) upload(ctx context.Context, uri string, content io.Reader, filename string) (*Attachment, error) {
	var params url.Values
	formName := filename
	if filename != "" {
		params = url.Values{"filename": {filename}}
	} else {
		formName = attachmentField
	}

	data, err := c.conn.Request(ctx, http.MethodPost, uri, params, File(attachmentField, formName, content))
	if err != nil {
		return nil, err
	}
	return ptr(Decode[Attachment](c, data))
}
