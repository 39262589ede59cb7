// Package handler exposes the application workflow over HTTP. Applicant
// routes operate on the caller's own application; admin routes address any
// application by ID. All routes sit behind the auth middleware, so a session
// is always present in the context.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/application/service"
	"github.com/stagelink/stagelink/internal/auth"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/httputil"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

// maxUploadBytes bounds the multipart submission body, photo included.
const maxUploadBytes = 10 << 20

type Handler struct {
	apps   *service.Service
	logger *slog.Logger
}

func New(apps *service.Service, logger *slog.Logger) *Handler {
	return &Handler{apps: apps, logger: logger}
}

// Register mounts the applicant routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/profile/role", h.selectRole)
	r.Post("/applications", h.submit)
	r.Get("/applications/me", h.getOwn)
	r.Post("/applications/{id}/approve", h.approve)
	r.Post("/applications/{id}/request-changes", h.requestChanges)
}

// RegisterAdmin mounts the review routes. Authorization is enforced in the
// service layer, so these stay plain routes rather than a second middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/applications", h.listPending)
	r.Get("/admin/applications/{id}", h.get)
	r.Post("/admin/applications/{id}/proposal", h.proposeProfile)
	r.Post("/admin/applications/{id}/reject", h.reject)
	r.Post("/admin/applications/{id}/finalize", h.finalize)
	r.Post("/admin/applications/{id}/manual-approve", h.manualApprove)
}

// applicationResponse decorates the record with the admin-override hint so
// clients never reimplement the waiting-period rule.
type applicationResponse struct {
	*models.Application
	ManualApproveAvailable bool `json:"manual_approve_available"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, app *models.Application) {
	httputil.WriteJSON(w, status, applicationResponse{
		Application:            app,
		ManualApproveAvailable: app.ShouldOfferManualApprove(requestcontext.Now(r.Context())),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}

func sessionFrom(r *http.Request) (auth.Session, bool) {
	return auth.FromContext(r.Context())
}

func appIDParam(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "id"))
}

type selectRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) selectRole(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	var req selectRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	profile, err := h.apps.SelectRole(r.Context(), session, req.Role)
	if err != nil {
		h.fail(w, r, "select role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

type submitRequest struct {
	Type   string        `json:"application_type"`
	Fields models.Fields `json:"fields"`
}

// submit accepts either a JSON body or a multipart form whose "data" part
// carries the same JSON and whose optional "photo" part carries the image.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)

	in, err := h.decodeSubmit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.apps.Submit(r.Context(), session, in)
	if err != nil {
		h.fail(w, r, "submit application", err)
		return
	}
	h.respond(w, r, http.StatusCreated, app)
}

func (h *Handler) decodeSubmit(r *http.Request) (service.SubmitInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req submitRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			return service.SubmitInput{}, err
		}
		return service.SubmitInput{Type: req.Type, Fields: req.Fields}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return service.SubmitInput{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed multipart body")
	}
	data := r.FormValue("data")
	if data == "" {
		return service.SubmitInput{}, dErrors.New(dErrors.CodeBadRequest, "multipart submission requires a data part")
	}
	var req submitRequest
	if err := decodeJSONString(data, &req); err != nil {
		return service.SubmitInput{}, err
	}
	in := service.SubmitInput{Type: req.Type, Fields: req.Fields}

	file, header, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return in, nil
	}
	if err != nil {
		return service.SubmitInput{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed photo part")
	}
	defer file.Close()
	photo, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return service.SubmitInput{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "reading photo part")
	}
	in.Photo = photo
	in.PhotoFilename = header.Filename
	return in, nil
}

func decodeJSONString(data string, dst any) error {
	if err := json.NewDecoder(strings.NewReader(data)).Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed JSON data part")
	}
	return nil
}

func (h *Handler) getOwn(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	app, err := h.apps.GetOwn(r.Context(), session)
	if err != nil {
		h.fail(w, r, "get own application", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.Approve(r.Context(), session, appID)
	if err != nil {
		h.fail(w, r, "approve application", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) requestChanges(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req noteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.RequestChanges(r.Context(), session, appID, req.Note)
	if err != nil {
		h.fail(w, r, "request changes", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)

	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	apps, err := h.apps.ListPending(r.Context(), session, status)
	if err != nil {
		h.fail(w, r, "list applications", err)
		return
	}

	now := requestcontext.Now(r.Context())
	out := make([]applicationResponse, len(apps))
	for i, app := range apps {
		out[i] = applicationResponse{
			Application:            app,
			ManualApproveAvailable: app.ShouldOfferManualApprove(now),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.Get(r.Context(), session, appID)
	if err != nil {
		h.fail(w, r, "get application", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

type proposalRequest struct {
	Profile          models.ProposedProfile `json:"profile"`
	ExpectedRevision int                    `json:"expected_revision"`
}

func (h *Handler) proposeProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req proposalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.ProposeProfile(r.Context(), session, appID, req.Profile, req.ExpectedRevision)
	if err != nil {
		h.fail(w, r, "propose profile", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req reasonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.Reject(r.Context(), session, appID, req.Reason)
	if err != nil {
		h.fail(w, r, "reject application", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.Finalize(r.Context(), session, appID)
	if err != nil {
		h.fail(w, r, "finalize application", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}

func (h *Handler) manualApprove(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	appID, err := appIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req reasonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.apps.ManualApprove(r.Context(), session, appID, req.Reason)
	if err != nil {
		h.fail(w, r, "manual approve", err)
		return
	}
	h.respond(w, r, http.StatusOK, app)
}
