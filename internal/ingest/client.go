// Package ingest is the HTTP client for the remote ingest service. It
// registers upload metadata, pushes callback results back, and, in
// development mode, consumes the simulated-callback stream.
//
// The client performs no retries; transport-level resilience is the
// http.Client's concern, and failures are propagated tagged.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/uploadthing/uploadthing-go/internal/common"
	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/uterror"
)

// Registration is the body of POST {base}/route-metadata.
type Registration struct {
	FileKeys        []string       `json:"fileKeys"`
	Metadata        map[string]any `json:"metadata"`
	IsDev           bool           `json:"isDev"`
	CallbackURL     string         `json:"callbackUrl"`
	CallbackSlug    string         `json:"callbackSlug"`
	AwaitServerData bool           `json:"awaitServerData"`
}

// Client talks to one ingest deployment with one set of credentials.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	logger logging.Logger
}

func NewClient(base *url.URL, apiKey string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   base,
		apiKey: apiKey,
		http:   httpClient,
		logger: logger.With("module", "ingest_client"),
	}
}

func (c *Client) newRequest(ctx context.Context, path string, body any, fePackage string) (*http.Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.HeaderAPIKey, c.apiKey)
	req.Header.Set(common.HeaderVersion, common.Version)
	req.Header.Set(common.HeaderBEAdapter, common.BEAdapter)
	if fePackage != "" {
		req.Header.Set(common.HeaderFEPackage, fePackage)
	}
	return req, nil
}

// RegisterMetadata performs the production metadata registration: one POST,
// one JSON acknowledgement. Non-2xx responses and undecodable bodies are
// INTERNAL_SERVER_ERROR-tagged.
func (c *Client) RegisterMetadata(ctx context.Context, reg *Registration, fePackage string) error {
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
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return uterror.Newf(uterror.CodeInternal,
			"metadata registration rejected: status %d: %s", resp.StatusCode, body)
	}

	var ack struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return uterror.Wrap(uterror.CodeInternal, "unexpected registration response", err)
	}

	c.logger.Debug(ctx, "metadata registered", "slug", reg.CallbackSlug, "files", len(reg.FileKeys))
	return nil
}

// SendCallbackResult pushes one completion resolver outcome back to the
// ingest service. A nil data is sent as JSON null.
func (c *Client) SendCallbackResult(ctx context.Context, fileKey string, data json.RawMessage, fePackage string) error {
	body := struct {
		FileKey      string          `json:"fileKey"`
		CallbackData json.RawMessage `json:"callbackData"`
	}{FileKey: fileKey, CallbackData: data}
	if body.CallbackData == nil {
		body.CallbackData = json.RawMessage("null")
	}

	req, err := c.newRequest(ctx, "callback-result", body, fePackage)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return uterror.Wrap(uterror.CodeInternal, "callback result delivery failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return uterror.Newf(uterror.CodeInternal, "callback result rejected: status %d", resp.StatusCode)
	}

	c.logger.Debug(ctx, "callback result delivered", "file_key", fileKey)
	return nil
}
