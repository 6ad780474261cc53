package server

import (
	"net/http"

	"github.com/uploadthing/uploadthing-go/internal/common"
	"github.com/uploadthing/uploadthing-go/router"
	"github.com/uploadthing/uploadthing-go/uterror"
)

type actionKind int

const (
	actionUpload actionKind = iota
	actionCallback
)

// action is the classification result: which of the two POST actions the
// request is, and the route it targets.
type action struct {
	kind  actionKind
	slug  string
	route *router.Route

	// fePackage is the client package identifier, echoed to the ingest
	// service on outbound calls.
	fePackage string
}

// classify inspects headers and query parameters and produces exactly one
// action. Anything outside the two valid combinations fails fast, before
// the body is touched.
func (s *Server) classify(r *http.Request) (*action, *uterror.Error) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		return nil, uterror.New(uterror.CodeBadRequest, "missing slug query parameter")
	}

	route, ok := s.registry.Lookup(slug)
	if !ok {
		return nil, uterror.Newf(uterror.CodeNotFound, "no route registered for slug %q", slug)
	}

	hook := r.Header.Get(common.HeaderHook)
	actionType := r.URL.Query().Get("actionType")

	switch {
	case hook == common.HookCallback && actionType == "":
		return &action{kind: actionCallback, slug: slug, route: route}, nil

	case actionType == common.ActionUpload && hook == "":
		clientVersion := r.Header.Get(common.HeaderVersion)
		if clientVersion != common.Version {
			return nil, uterror.Newf(uterror.CodeBadRequest,
				"client version %q does not match server version %q", clientVersion, common.Version)
		}
		return &action{
			kind:      actionUpload,
			slug:      slug,
			route:     route,
			fePackage: r.Header.Get(common.HeaderPackage),
		}, nil

	default:
		return nil, uterror.Newf(uterror.CodeBadRequest,
			"invalid action: hook=%q actionType=%q", hook, actionType)
	}
}
