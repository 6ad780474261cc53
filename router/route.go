package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MiddlewareRequest is what a route's middleware sees: the validated input,
// the client-declared files, and the inbound headers for auth decisions.
type MiddlewareRequest struct {
	Input  json.RawMessage
	Files  []FileInfo
	Header http.Header
}

// FileOverride lets middleware adjust one file before keys are derived.
// The index in MiddlewareResult.Files matches the index in the request's
// file list. Size is advisory only: the client-declared size always wins,
// a mismatch is logged and discarded.
type FileOverride struct {
	Name         string
	CustomID     string
	Size         int64
	LastModified int64
}

// MiddlewareResult carries the metadata forwarded to the ingest service and
// handed back verbatim on completion, plus optional per-file overrides.
// When Files is non-empty its length must equal the request's file count.
type MiddlewareResult struct {
	Metadata map[string]any
	Files    []FileOverride
}

// Middleware authorizes one upload action and attaches metadata. Returning
// a *uterror.Error surfaces it verbatim; any other error is reported to the
// client as INTERNAL_SERVER_ERROR.
type Middleware func(ctx context.Context, req *MiddlewareRequest) (*MiddlewareResult, error)

// CompletedFile describes a file the ingest service has confirmed stored.
type CompletedFile struct {
	Key      string `json:"key" validate:"required"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	CustomID string `json:"customId"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// CompleteFn is the completion resolver: it runs once per stored file and
// returns server-side data pushed back to the ingest service. Its contract
// is "return data or nil", not "signal failure" — errors are wrapped and
// logged, never delivered to the uploading client.
type CompleteFn func(ctx context.Context, file *CompletedFile, metadata map[string]any) (any, error)

// InputValidator parses and validates the user-supplied input of an upload
// action. A nil validator accepts any input including none.
type InputValidator func(input json.RawMessage) error

// KeyPart selects which file attributes feed key derivation.
type KeyPart string

const (
	KeyPartName     KeyPart = "name"
	KeyPartSize     KeyPart = "size"
	KeyPartType     KeyPart = "type"
	KeyPartCustomID KeyPart = "customId"
)

// DefaultKeyParts is used when route options leave KeyParts empty.
var DefaultKeyParts = []KeyPart{KeyPartName, KeyPartSize, KeyPartType}

// Options are the behavioral knobs of one route.
type Options struct {
	// URLTTL bounds the validity of generated presigned URLs. Zero means
	// one hour.
	URLTTL time.Duration
	// AwaitServerData asks the ingest service to hold the client upload
	// response until the completion resolver's data has arrived.
	AwaitServerData bool
	// KeyParts selects the file attributes hashed into the upload key.
	KeyParts []KeyPart
	// DeterministicKeys drops the per-request entropy so identical files
	// map to identical keys. Off by default.
	DeterministicKeys bool
	// Concurrency caps the per-file presign fan-out. Zero is unbounded.
	Concurrency int
}

const defaultURLTTL = time.Hour

func (o Options) normalized() Options {
	if o.URLTTL == 0 {
		o.URLTTL = defaultURLTTL
	}
	if len(o.KeyParts) == 0 {
		o.KeyParts = DefaultKeyParts
	}
	return o
}

// Route is one registered upload route. Build it with NewRoute and the
// With* chain, then hand it to NewRegistry; it must not be mutated after
// registration.
type Route struct {
	types      map[FileType]TypeConfig
	opts       Options
	middleware Middleware
	validator  InputValidator
	onComplete CompleteFn

	normOnce sync.Once
	normCfg  map[FileType]TypeConfig
	normOpts Options
}

// NewRoute starts a route accepting the given file-type buckets.
func NewRoute(types map[FileType]TypeConfig) *Route {
	cp := make(map[FileType]TypeConfig, len(types))
	for t, c := range types {
		cp[t] = c
	}
	return &Route{types: cp}
}

func (r *Route) WithOptions(opts Options) *Route {
	r.opts = opts
	return r
}

func (r *Route) WithMiddleware(fn Middleware) *Route {
	r.middleware = fn
	return r
}

func (r *Route) WithInputValidator(fn InputValidator) *Route {
	r.validator = fn
	return r
}

func (r *Route) OnComplete(fn CompleteFn) *Route {
	r.onComplete = fn
	return r
}

func (r *Route) Middleware() Middleware { return r.middleware }

func (r *Route) InputValidator() InputValidator { return r.validator }

func (r *Route) CompleteFn() CompleteFn { return r.onComplete }

// EffectiveConfig returns the normalized per-type rules. Normalization runs
// once per route and is cached; routes are immutable so the cache never
// invalidates.
func (r *Route) EffectiveConfig() map[FileType]TypeConfig {
	r.normalize()
	return r.normCfg
}

// EffectiveOptions returns the options with defaults filled in.
func (r *Route) EffectiveOptions() Options {
	r.normalize()
	return r.normOpts
}

func (r *Route) normalize() {
	r.normOnce.Do(func() {
		cfg := make(map[FileType]TypeConfig, len(r.types))
		for t, c := range r.types {
			cfg[t] = c.normalized()
		}
		r.normCfg = cfg
		r.normOpts = r.opts.normalized()
	})
}

// Bucket resolves a declared file type against this route's configured
// buckets and returns the bucket's normalized rules.
func (r *Route) Bucket(declared string) (FileType, TypeConfig, bool) {
	cfg := r.EffectiveConfig()
	t, ok := resolveBucket(declared, cfg)
	if !ok {
		return "", TypeConfig{}, false
	}
	return t, cfg[t], true
}

func (r *Route) validate(slug string) error {
	if len(r.types) == 0 {
		return fmt.Errorf("route %q: no file types configured", slug)
	}
	for t, c := range r.types {
		if err := c.validate(t); err != nil {
			return fmt.Errorf("route %q: %w", slug, err)
		}
	}
	if r.opts.URLTTL < 0 {
		return fmt.Errorf("route %q: negative url ttl", slug)
	}
	if r.opts.Concurrency < 0 {
		return fmt.Errorf("route %q: negative concurrency", slug)
	}
	return nil
}
