package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uploadthing/uploadthing-go/router"
	"github.com/uploadthing/uploadthing-go/uterror"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "writing response failed", "error", err.Error())
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ue := uterror.From(err)
	if ue.Code == uterror.CodeInternal {
		s.logger.Error(ctx, "request failed", "code", string(ue.Code), "error", ue.Error())
	} else {
		s.logger.Warn(ctx, "request rejected", "code", string(ue.Code), "message", ue.Message)
	}
	s.writeJSON(w, ue.Status(), ue.Wire(s.cfg.ExposeErrorCauses))
}

// routeConfig is one entry of the GET introspection surface: the slug and
// its normalized per-type rules.
type routeConfig struct {
	Slug   string                                `json:"slug"`
	Config map[router.FileType]router.TypeConfig `json:"config"`
}

// handleIntrospect lists every registered route's effective config. The
// output is deterministic: slugs sorted, configs normalized once and
// cached, so repeated calls are byte-identical.
func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	out := make([]routeConfig, 0, len(s.registry.Slugs()))
	for _, slug := range s.registry.Slugs() {
		route, _ := s.registry.Lookup(slug)
		out = append(out, routeConfig{Slug: slug, Config: route.EffectiveConfig()})
	}
	s.writeJSON(w, http.StatusOK, out)
}
