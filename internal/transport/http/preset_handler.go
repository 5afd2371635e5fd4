package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tsprep/internal/errors"
	"tsprep/internal/preset"
)

// PresetHandler handles preset persistence requests.
type PresetHandler struct {
	store  *preset.Store
	logger *slog.Logger
}

// NewPresetHandler creates a new preset handler.
func NewPresetHandler(store *preset.Store, logger *slog.Logger) *PresetHandler {
	return &PresetHandler{
		store:  store,
		logger: logger.With(slog.String("component", "preset_handler")),
	}
}

// Routes returns the preset routes.
func (h *PresetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Post("/import", h.Import)
	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/export", h.Export)
	})

	return r
}

// List handles GET /api/presets
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.store.List()
	if infos == nil {
		infos = []preset.Info{}
	}
	respond(w, r, infos)
}

// SavePresetRequest carries a preset to persist.
type SavePresetRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Settings    preset.Settings `json:"settings"`
}

// Save handles POST /api/presets
func (h *PresetHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SavePresetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	p, err := h.store.Save(req.Name, req.Description, req.Settings)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, r, p)
}

// Get handles GET /api/presets/{name}
func (h *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := h.store.Load(name)
	if err != nil {
		respondError(w, r, apierrors.NotFoundError("preset"))
		return
	}
	respond(w, r, p)
}

// Delete handles DELETE /api/presets/{name}
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.store.Delete(name); err != nil {
		respondError(w, r, apierrors.NotFoundError("preset"))
		return
	}
	h.logger.InfoContext(r.Context(), "preset deleted", slog.String("name", name))
	respond(w, r, map[string]string{"deleted": name})
}

// ExportPresetRequest names the destination file.
type ExportPresetRequest struct {
	Path string `json:"path" validate:"required"`
}

// Export handles POST /api/presets/{name}/export
func (h *PresetHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ExportPresetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.Export(name, req.Path); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, map[string]string{"name": name, "path": req.Path})
}

// ImportPresetRequest names the source file.
type ImportPresetRequest struct {
	Path string `json:"path" validate:"required"`
}

// Import handles POST /api/presets/import
func (h *PresetHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportPresetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	name, err := h.store.Import(req.Path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, r, map[string]string{"name": name})
}
