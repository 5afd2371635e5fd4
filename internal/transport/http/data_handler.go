package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tsprep/internal/errors"
	"tsprep/internal/pipeline"
	"tsprep/internal/services"
)

// DataHandler handles dataset and transform requests.
type DataHandler struct {
	service *services.PrepService
	logger  *slog.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service *services.PrepService, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		service: service,
		logger:  logger.With(slog.String("component", "data_handler")),
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/load", h.Load)
	r.Get("/info", h.Info)
	r.Get("/preview", h.Preview)
	r.Get("/stats", h.Stats)
	r.Get("/summary", h.Summary)
	r.Get("/columns/{column}/stats", h.ColumnStats)
	r.Get("/help", h.Help)
	r.Get("/help/{topic}", h.HelpTopic)

	r.Post("/filters", h.ApplyFilters)
	r.Post("/outliers", h.RemoveOutliers)
	r.Post("/normalize", h.Normalize)
	r.Post("/timestamps/snap", h.SnapTimestamps)
	r.Post("/timestamps/realign", h.RealignTimestamps)
	r.Post("/export", h.Export)

	return r
}

// LoadRequest names the input file to open.
type LoadRequest struct {
	Path string `json:"path" validate:"required"`
}

// Load handles POST /api/data/load
func (h *DataHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.Load(req.Path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// Info handles GET /api/data/info
func (h *DataHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, info)
}

// Preview handles GET /api/data/preview?rows=n
func (h *DataHandler) Preview(w http.ResponseWriter, r *http.Request) {
	rows := 10
	if raw := r.URL.Query().Get("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, r, apierrors.ErrValidation("rows", "must be a positive integer"))
			return
		}
		rows = n
	}

	pv, err := h.service.PreviewRows(rows)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, pv)
}

// Stats handles GET /api/data/stats
func (h *DataHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, stats)
}

// Summary handles GET /api/data/summary
func (h *DataHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, map[string]string{"summary": summary})
}

// ColumnStats handles GET /api/data/columns/{column}/stats
func (h *DataHandler) ColumnStats(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	if column == "" {
		respondError(w, r, apierrors.ErrValidation("column", "column name is required"))
		return
	}

	stats, err := h.service.ColumnStats(column)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, stats)
}

// Help handles GET /api/data/help
func (h *DataHandler) Help(w http.ResponseWriter, r *http.Request) {
	topics := make(map[string]string)
	for _, key := range pipeline.HelpKeys() {
		topics[key], _ = pipeline.HelpText(key)
	}
	respond(w, r, topics)
}

// HelpTopic handles GET /api/data/help/{topic}
func (h *DataHandler) HelpTopic(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	text, err := pipeline.HelpText(topic)
	if err != nil {
		respondError(w, r, apierrors.NotFoundError("help topic"))
		return
	}
	respond(w, r, map[string]string{"topic": topic, "text": text})
}

// FiltersRequest carries the predicate list.
type FiltersRequest struct {
	Filters []pipeline.FilterPredicate `json:"filters" validate:"dive"`
}

// ApplyFilters handles POST /api/data/filters
func (h *DataHandler) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.ApplyFilters(req.Filters)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// OutliersRequest selects an outlier pass.
type OutliersRequest struct {
	Method  pipeline.OutlierMethod `json:"method" validate:"required"`
	Action  pipeline.OutlierAction `json:"action" validate:"required"`
	Columns []string               `json:"columns,omitempty"`
}

// RemoveOutliers handles POST /api/data/outliers
func (h *DataHandler) RemoveOutliers(w http.ResponseWriter, r *http.Request) {
	var req OutliersRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.RemoveOutliers(req.Method, req.Columns, req.Action)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// NormalizeRequest selects a normalization pass.
type NormalizeRequest struct {
	Method  pipeline.NormMethod `json:"method" validate:"required"`
	Columns []string            `json:"columns,omitempty"`
}

// Normalize handles POST /api/data/normalize
func (h *DataHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.Normalize(req.Method, req.Columns)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// SnapRequest selects a grid-snapping pass.
type SnapRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// SnapTimestamps handles POST /api/data/timestamps/snap
func (h *DataHandler) SnapTimestamps(w http.ResponseWriter, r *http.Request) {
	var req SnapRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.SnapTimestamps(req.IntervalMinutes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// RealignRequest selects a realignment pass.
type RealignRequest struct {
	StartTime       string `json:"start_time" validate:"required"`
	IntervalMinutes int    `json:"interval_minutes"`
}

// RealignTimestamps handles POST /api/data/timestamps/realign
func (h *DataHandler) RealignTimestamps(w http.ResponseWriter, r *http.Request) {
	var req RealignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.RealignTimestamps(req.StartTime, req.IntervalMinutes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}

// ExportRequest selects an export.
type ExportRequest struct {
	OutputPath string `json:"output_path,omitempty"`
	DateFormat string `json:"date_format,omitempty"`
}

// Export handles POST /api/data/export
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.service.Export(req.OutputPath, req.DateFormat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, res)
}
