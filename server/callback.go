package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uploadthing/uploadthing-go/internal/common"
	"github.com/uploadthing/uploadthing-go/internal/signx"
	"github.com/uploadthing/uploadthing-go/router"
	"github.com/uploadthing/uploadthing-go/uterror"
)

// callbackPayload is the body the ingest service POSTs once a file's bytes
// have landed. Metadata is the middleware metadata echoed back verbatim.
type callbackPayload struct {
	Status   string               `json:"status" validate:"required"`
	File     router.CompletedFile `json:"file"`
	Metadata map[string]any       `json:"metadata"`
}

// handleCallback reconciles one inbound callback: verify, parse, resolve,
// respond null, then push the resolver's data back as a detached task.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request, act *action) {
	ctx := r.Context()

	body, uerr := readActionBody(r)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	signature := r.Header.Get(common.HeaderSignature)
	fileKey, data, uerr := s.resolveCallback(ctx, act, body, signature)
	if uerr != nil {
		s.writeError(ctx, w, uerr)
		return
	}

	// The response never waits for the result push-back.
	s.writeJSON(w, http.StatusOK, nil)

	s.runner.Go(ctx, "callback-result", func(ctx context.Context) error {
		return s.client.SendCallbackResult(ctx, fileKey, data, act.fePackage)
	})
}

// resolveCallback is the dispatch shared by the HTTP callback entry point
// and the development-mode stream: signature verification, payload parsing,
// and completion-resolver invocation. It returns the file key and the
// marshaled resolver result for push-back.
func (s *Server) resolveCallback(ctx context.Context, act *action, body []byte, signature string) (string, json.RawMessage, *uterror.Error) {
	if !signx.Verify(body, signature, s.cfg.APIKey) {
		return "", nil, uterror.New(uterror.CodeBadRequest, "Invalid signature")
	}

	var payload callbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, uterror.Wrap(uterror.CodeBadRequest, "malformed callback payload", err)
	}
	if err := s.validate.Struct(&payload); err != nil {
		return "", nil, uterror.Wrap(uterror.CodeBadRequest, "invalid callback payload", err)
	}

	var data json.RawMessage
	if resolver := act.route.CompleteFn(); resolver != nil {
		result, err := resolver(ctx, &payload.File, payload.Metadata)
		if err != nil {
			return "", nil, uterror.Wrap(uterror.CodeInternal,
				"upload completion resolver failed; it should return data, not an error", err)
		}
		if result != nil {
			raw, err := json.Marshal(result)
			if err != nil {
				return "", nil, uterror.Wrap(uterror.CodeInternal, "unserializable resolver result", err)
			}
			data = raw
		}
	}

	s.logger.Info(ctx, "upload completed", "slug", act.slug, "file_key", payload.File.Key, "status", payload.Status)
	return payload.File.Key, data, nil
}

// dispatchDevCallback handles one record of the development-mode stream.
// It runs the same resolve path as a real callback and pushes the result
// back inline, since the whole stream already runs detached.
func (s *Server) dispatchDevCallback(ctx context.Context, act *action, payload []byte, signature string) error {
	fileKey, data, uerr := s.resolveCallback(ctx, act, payload, signature)
	if uerr != nil {
		return uerr
	}
	return s.client.SendCallbackResult(ctx, fileKey, data, act.fePackage)
}
