package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/uploadthing/uploadthing-go/uterror"
)

// DevRecord is one simulated callback in the development-mode metadata
// stream: the callback body the ingest service would have POSTed, plus its
// signature under the shared API key.
type DevRecord struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// StreamDevCallbacks performs the development-mode metadata registration.
// The response stays open as a stream of JSON records, one per completed
// file, each dispatched through fn as it arrives. A failing record is
// logged and the stream continues; only transport and decode failures end
// the stream early.
//
// The call returns when the ingest service closes the stream or ctx is
// done, which is why the daemon "await" policy is forbidden in development
// mode.
func (c *Client) StreamDevCallbacks(ctx context.Context, reg *Registration, fePackage string, fn func(ctx context.Context, payload []byte, signature string) error) error {
	req, err := c.newRequest(ctx, "route-metadata", reg, fePackage)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return uterror.Wrap(uterror.CodeInternal, "metadata registration failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return uterror.Newf(uterror.CodeInternal, "metadata registration rejected: status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var rec DevRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return uterror.Wrap(uterror.CodeInternal, "malformed dev stream record", err)
		}

		if err := fn(ctx, []byte(rec.Payload), rec.Signature); err != nil {
			c.logger.Error(ctx, "simulated callback failed", "error", err.Error())
		}
	}
}
