package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tsprep/internal/errors"
	"tsprep/internal/operations"
	"tsprep/internal/preset"
	"tsprep/internal/services"
)

// OperationsHandler starts and tracks full preprocessing runs.
type OperationsHandler struct {
	service *services.OperationsService
	presets *preset.Store
	logger  *slog.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(service *services.OperationsService, presets *preset.Store, logger *slog.Logger) *OperationsHandler {
	return &OperationsHandler{
		service: service,
		presets: presets,
		logger:  logger.With(slog.String("component", "operations_handler")),
	}
}

// Routes returns the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Start)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
	})

	return r
}

// StartRunRequest selects the settings of a run. Either inline settings
// or a stored preset name; the preset wins when both are given.
type StartRunRequest struct {
	Preset   string                   `json:"preset,omitempty"`
	Settings *preset.Settings         `json:"settings,omitempty"`
	Export   operations.ExportOptions `json:"export"`
}

// Start handles POST /api/operations
func (h *OperationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	settings := preset.Default()
	switch {
	case req.Preset != "":
		p, err := h.presets.Load(req.Preset)
		if err != nil {
			respondError(w, r, apierrors.NotFoundError("preset"))
			return
		}
		settings = p.Settings
	case req.Settings != nil:
		settings = *req.Settings
	}

	snap, err := h.service.StartRun(settings, req.Export)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run started",
		slog.String("run_id", snap.ID),
		slog.String("preset", req.Preset))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, successResponse{Success: true, Data: snap})
}

// List handles GET /api/operations
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.ListRuns())
}

// Get handles GET /api/operations/{id}
func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Run(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, snap)
}

// Cancel handles DELETE /api/operations/{id}
func (h *OperationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.CancelRun(id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, map[string]string{"cancelled": id})
}
