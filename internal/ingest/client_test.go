package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadthing/uploadthing-go/internal/common"
	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/uterror"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewClient(base, "sk_test", srv.Client(), logging.Noop{}), srv
}

func TestRegisterMetadata_SendsAuthHeadersAndBody(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotHdr  http.Header
		gotBody Registration
	)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotHdr = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"ok":true}`)
	})

	reg := &Registration{
		FileKeys:        []string{"k1", "k2"},
		Metadata:        map[string]any{"userId": "u1"},
		CallbackURL:     "https://example.com/api/uploadthing",
		CallbackSlug:    "avatar",
		AwaitServerData: true,
	}
	require.NoError(t, c.RegisterMetadata(context.Background(), reg, "@uploadthing/react"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/route-metadata", gotPath)
	assert.Equal(t, "sk_test", gotHdr.Get(common.HeaderAPIKey))
	assert.Equal(t, common.Version, gotHdr.Get(common.HeaderVersion))
	assert.Equal(t, common.BEAdapter, gotHdr.Get(common.HeaderBEAdapter))
	assert.Equal(t, "@uploadthing/react", gotHdr.Get(common.HeaderFEPackage))
	assert.Equal(t, []string{"k1", "k2"}, gotBody.FileKeys)
	assert.Equal(t, "avatar", gotBody.CallbackSlug)
	assert.True(t, gotBody.AwaitServerData)
}

func TestRegisterMetadata_Non2xxIsInternal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	err := c.RegisterMetadata(context.Background(), &Registration{}, "")
	require.Error(t, err)
	assert.True(t, uterror.Is(err, uterror.CodeInternal))
}

func TestSendCallbackResult_NilDataBecomesNull(t *testing.T) {
	var gotRaw []byte
	var mu sync.Mutex

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotRaw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.SendCallbackResult(context.Background(), "k1", nil, ""))

	mu.Lock()
	defer mu.Unlock()
	var body struct {
		FileKey      string          `json:"fileKey"`
		CallbackData json.RawMessage `json:"callbackData"`
	}
	require.NoError(t, json.Unmarshal(gotRaw, &body))
	assert.Equal(t, "k1", body.FileKey)
	assert.Equal(t, "null", string(body.CallbackData))
}

func TestStreamDevCallbacks_DispatchesEachRecord(t *testing.T) {
	records := []DevRecord{
		{Payload: `{"status":"uploaded","file":{"key":"k1"}}`, Signature: "hmac-sha256=a"},
		{Payload: `{"status":"uploaded","file":{"key":"k2"}}`, Signature: "hmac-sha256=b"},
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body Registration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.IsDev)

		enc := json.NewEncoder(w)
		for _, rec := range records {
			require.NoError(t, enc.Encode(rec))
			w.(http.Flusher).Flush()
		}
	})

	var got []string
	err := c.StreamDevCallbacks(context.Background(), &Registration{IsDev: true}, "",
		func(ctx context.Context, payload []byte, signature string) error {
			got = append(got, string(payload)+"|"+signature)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"status":"uploaded","file":{"key":"k1"}}|hmac-sha256=a`,
		`{"status":"uploaded","file":{"key":"k2"}}|hmac-sha256=b`,
	}, got)
}

func TestStreamDevCallbacks_RecordErrorDoesNotEndStream(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(DevRecord{Payload: `bad`, Signature: "s"})
		enc.Encode(DevRecord{Payload: `good`, Signature: "s"})
	})

	var calls int
	err := c.StreamDevCallbacks(context.Background(), &Registration{IsDev: true}, "",
		func(ctx context.Context, payload []byte, signature string) error {
			calls++
			if string(payload) == "bad" {
				return fmt.Errorf("dispatch failed")
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStreamDevCallbacks_TruncatedStream(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"payload":"{}","signature":"s"}`)
		io.WriteString(w, `{"payload":`) // cut mid-record
	})

	var calls int
	err := c.StreamDevCallbacks(context.Background(), &Registration{IsDev: true}, "",
		func(ctx context.Context, payload []byte, signature string) error {
			calls++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
