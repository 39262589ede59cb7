// Package handler exposes the public directory listings. No authentication:
// visitors browse these pages.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagelink/stagelink/internal/directory/service"
	"github.com/stagelink/stagelink/pkg/platform/httputil"
)

type Handler struct {
	directory *service.Service
	logger    *slog.Logger
}

func New(directory *service.Service, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the directory routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/directory/artists", h.listArtists)
	r.Get("/directory/industry-professionals", h.listIndustryProfessionals)
	r.Get("/directory/instrumentalists", h.listInstrumentalists)
}

func (h *Handler) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.directory.ListArtists(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list artists failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"artists": artists})
}

func (h *Handler) listIndustryProfessionals(w http.ResponseWriter, r *http.Request) {
	pros, err := h.directory.ListIndustryProfessionals(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list industry professionals failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"industry_professionals": pros})
}

func (h *Handler) listInstrumentalists(w http.ResponseWriter, r *http.Request) {
	players, err := h.directory.ListInstrumentalists(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list instrumentalists failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"instrumentalists": players})
}
