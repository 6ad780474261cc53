package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/uploadthing/uploadthing-go/internal/ingest"
	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/internal/signx"
	"github.com/uploadthing/uploadthing-go/router"
	"github.com/uploadthing/uploadthing-go/uterror"
)

// maxActionBody bounds the upload action payload. It describes files, it
// does not carry them.
const maxActionBody = 1 << 20

// readActionBody reads an action payload, rejecting anything over
// maxActionBody with TOO_LARGE rather than truncating it into a parse
// error.
func readActionBody(r *http.Request) ([]byte, *uterror.Error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody+1))
	if err != nil {
		return nil, uterror.Wrap(uterror.CodeBadRequest, "unreadable request body", err)
	}
	if len(body) > maxActionBody {
		return nil, uterror.Newf(uterror.CodeTooLarge, "action payload exceeds %d bytes", maxActionBody)
	}
	return body, nil
}

// uploadRequest is the body of an upload action.
type uploadRequest struct {
	Input json.RawMessage   `json:"input"`
	Files []router.FileInfo `json:"files" validate:"required,min=1,dive"`
}

// uploadEntry is one element of the upload action response, in input order.
type uploadEntry struct {
	URL      string  `json:"url"`
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	CustomID *string `json:"customId"`
}

// fileUpload is the per-file working state: the client-declared file merged
// with middleware overrides and the resolved bucket rules.
type fileUpload struct {
	router.FileInfo
	CustomID     string
	LastModified int64
	Bucket       router.FileType
	Disposition  string
	ACL          string
}

// handleUpload runs the upload state machine for one request. Steps 1-6 are
// synchronous and all-or-nothing: no outbound call happens until every file
// has passed validation, and a single presign failure aborts the batch.
// Step 7, metadata registration, is detached and never gates the response.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, act *action) {
	ctx := r.Context()
	log := s.logger.With("slug", act.slug)

	body, uerr := readActionBody(r)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	var req uploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(ctx, w, uterror.Wrap(uterror.CodeBadRequest, "malformed upload action payload", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.writeError(ctx, w, uterror.Wrap(uterror.CodeBadRequest, "invalid upload action payload", err))
		return
	}

	// step 1: route input validation
	if v := act.route.InputValidator(); v != nil {
		if err := v(req.Input); err != nil {
			s.writeError(ctx, w, uterror.Wrap(uterror.CodeBadRequest, "input validation failed", err))
			return
		}
	}

	// step 2: middleware, the first side-effecting user hook
	mwResult, uerr := s.runMiddleware(ctx, act, &req, r.Header)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	// steps 3-5: overrides, config resolution, file validation
	files, uerr := s.prepareFiles(ctx, log, act.route, req.Files, mwResult)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	// step 6: key derivation and presigning, fanned out per file
	entries, keys, uerr := s.presignAll(ctx, act, files)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	// step 7: detached metadata registration
	s.registerMetadata(ctx, act, keys, mwResult.Metadata)

	// step 8: respond without waiting for step 7
	log.Info(ctx, "upload action accepted", "files", len(entries))
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) runMiddleware(ctx context.Context, act *action, req *uploadRequest, header http.Header) (*router.MiddlewareResult, *uterror.Error) {
	mw := act.route.Middleware()
	if mw == nil {
		return &router.MiddlewareResult{}, nil
	}

	result, err := mw(ctx, &router.MiddlewareRequest{
		Input:  req.Input,
		Files:  req.Files,
		Header: header,
	})
	if err != nil {
		return nil, uterror.From(err)
	}
	if result == nil {
		result = &router.MiddlewareResult{}
	}
	return result, nil
}

// prepareFiles reconciles middleware overrides, resolves each file's bucket,
// and enforces count and size bounds. Everything here fails before any
// network call is made.
func (s *Server) prepareFiles(ctx context.Context, log logging.Logger, route *router.Route, declared []router.FileInfo, mw *router.MiddlewareResult) ([]*fileUpload, *uterror.Error) {

	// step 3: override-array length mismatch is fatal
	if len(mw.Files) > 0 && len(mw.Files) != len(declared) {
		return nil, uterror.Newf(uterror.CodeBadRequest,
			"middleware returned %d file overrides for %d files", len(mw.Files), len(declared))
	}

	files := make([]*fileUpload, len(declared))
	counts := make(map[router.FileType]int)

	for i, fi := range declared {
		f := &fileUpload{FileInfo: fi}

		if len(mw.Files) > 0 {
			ov := mw.Files[i]
			if ov.Name != "" {
				f.Name = ov.Name
			}
			f.CustomID = ov.CustomID
			f.LastModified = ov.LastModified
			// size overrides are advisory: the client-declared size wins
			if ov.Size != 0 && ov.Size != fi.Size {
				log.Warn(ctx, "ignoring middleware size override",
					"file", f.Name, "declared", fi.Size, "override", ov.Size)
			}
		}

		// steps 4-5: bucket resolution against the normalized config
		bucket, cfg, ok := route.Bucket(f.Type)
		if !ok {
			return nil, uterror.Newf(uterror.CodeBadRequest,
				"file %q has type %q which this route does not accept", f.Name, f.Type)
		}
		f.Bucket = bucket
		f.Disposition = cfg.ContentDisposition
		f.ACL = cfg.ACL
		counts[bucket]++

		if f.Size > cfg.MaxFileSize {
			return nil, uterror.Newf(uterror.CodeBadRequest,
				"file %q is %d bytes, exceeding the %d byte limit for type %q", f.Name, f.Size, cfg.MaxFileSize, bucket)
		}

		files[i] = f
	}

	cfg := route.EffectiveConfig()
	for bucket, n := range counts {
		rules := cfg[bucket]
		if n > rules.MaxFileCount {
			return nil, uterror.Newf(uterror.CodeBadRequest,
				"%d files of type %q exceed the maximum of %d", n, bucket, rules.MaxFileCount)
		}
	}
	for bucket, rules := range cfg {
		if n := counts[bucket]; n > 0 && n < rules.MinFileCount {
			return nil, uterror.Newf(uterror.CodeBadRequest,
				"%d files of type %q below the minimum of %d", n, bucket, rules.MinFileCount)
		}
	}

	return files, nil
}

// presignAll derives keys and signed URLs for every file. The fan-out is
// concurrent with no ordering dependency; results are re-joined into input
// order by index. Any failure aborts the whole batch.
func (s *Server) presignAll(ctx context.Context, act *action, files []*fileUpload) ([]uploadEntry, []string, *uterror.Error) {
	opts := act.route.EffectiveOptions()

	entries := make([]uploadEntry, len(files))
	keys := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			key := deriveKey(s.cfg.AppID, f, opts)
			url, err := signx.PresignUploadURL(s.ingestBase, key, signx.PresignData{
				AppID:              s.cfg.AppID,
				FileName:           f.Name,
				FileSize:           f.Size,
				FileType:           f.Type,
				Slug:               act.slug,
				CustomID:           f.CustomID,
				ContentDisposition: f.Disposition,
				ACL:                f.ACL,
			}, opts.URLTTL, s.cfg.APIKey)
			if err != nil {
				return err
			}

			entry := uploadEntry{URL: url, Key: key, Name: f.Name}
			if f.CustomID != "" {
				entry.CustomID = &f.CustomID
			}
			entries[i] = entry
			keys[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, uterror.Wrap(uterror.CodeURLGenerationFailed, "presigning failed", err)
	}
	return entries, keys, nil
}

// registerMetadata spawns step 7. In production it is a single POST; in
// development it holds the simulated-callback stream open and dispatches
// each record through the same path a real callback takes.
func (s *Server) registerMetadata(ctx context.Context, act *action, keys []string, metadata map[string]any) {
	reg := &ingest.Registration{
		FileKeys:        keys,
		Metadata:        metadata,
		IsDev:           s.cfg.IsDev,
		CallbackURL:     s.cfg.CallbackURL,
		CallbackSlug:    act.slug,
		AwaitServerData: act.route.EffectiveOptions().AwaitServerData,
	}

	if s.cfg.IsDev {
		s.runner.Go(ctx, "dev-stream", func(ctx context.Context) error {
			return s.client.StreamDevCallbacks(ctx, reg, act.fePackage,
				func(ctx context.Context, payload []byte, signature string) error {
					return s.dispatchDevCallback(ctx, act, payload, signature)
				})
		})
		return
	}

	s.runner.Go(ctx, "register-metadata", func(ctx context.Context) error {
		return s.client.RegisterMetadata(ctx, reg, act.fePackage)
	})
}
