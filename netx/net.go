// Package netx carries the direct-to-ingest transfer helper: PUT a file's
// bytes to a presigned URL. The orchestration core never moves bytes
// itself; this is for hosts that upload server-side (avatars generated on
// the backend, migrations) instead of from a browser.
package netx

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/uploadthing/uploadthing-go/uterror"
)

// PutPresigned uploads file to a presigned URL. Transfer failures are
// UPLOAD_FAILED: they happen after orchestration succeeded and carry the
// ingest service's response for diagnosis.
func PutPresigned(ctx context.Context, client *http.Client, url, contentType string, file []byte) error {
	if client == nil {
		client = http.DefaultClient
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(file))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return uterror.Wrap(uterror.CodeUploadFailed, "transfer failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return uterror.Newf(uterror.CodeUploadFailed, "transfer rejected: %s: %s", resp.Status, b)
	}
	return nil
}
