package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"diabetesrisk/ml"
	"diabetesrisk/risk"
)

// Assessor scores one set of measurements.
type Assessor interface {
	Assess(ctx context.Context, m ml.Measurements) (*risk.Assessment, error)
}

// ArtifactSource exposes the active artifacts for health reporting.
type ArtifactSource interface {
	Current() *ml.Artifacts
}

// App holds the request handlers and their dependencies.
type App struct {
	assessor  Assessor
	artifacts ArtifactSource
	logger    *zap.Logger
	page      *template.Template
	sidebar   template.HTML
	upgrader  websocket.Upgrader
}

// NewApp parses the page templates and renders the sidebar.
func NewApp(assessor Assessor, artifacts ArtifactSource, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	return &App{
		assessor:  assessor,
		artifacts: artifacts,
		logger:    logger,
		page:      page,
		sidebar:   renderSidebar(ml.InputFields()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// RegisterHandlers registers the form page.
func (a *App) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleForm)
	mux.HandleFunc("POST /{$}", a.handleSubmit)
}

// RegisterAPIHandlers registers the JSON API.
func (a *App) RegisterAPIHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/fields", a.handleFields)
	mux.HandleFunc("POST /api/assess", a.handleAssess)
}

func (a *App) handleForm(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, r, http.StatusOK, newPageData(ml.DefaultMeasurements(), a.sidebar))
}

func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := newPageData(ml.DefaultMeasurements(), a.sidebar)
		data.Error = "The form submission could not be read. Please check the values and try again."
		a.renderPage(w, r, http.StatusBadRequest, data)
		return
	}
	inputs := ml.ParseForm(r.PostForm)
	data := newPageData(inputs, a.sidebar)

	assessment, err := a.assessor.Assess(r.Context(), inputs)
	if err != nil {
		a.logger.Error("assessment failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		data.Error = "The prediction could not be computed. Please try again later."
		a.renderPage(w, r, http.StatusInternalServerError, data)
		return
	}
	data.Assessment = assessment
	a.renderPage(w, r, http.StatusOK, data)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	current := a.artifacts.Current()
	if current == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, map[string]interface{}{
		"status":    "ok",
		"model":     ml.DescribeModel(current.Model),
		"loaded_at": current.LoadedAt,
	})
}

func (a *App) handleFields(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, ml.InputFields())
}

func (a *App) handleAssess(w http.ResponseWriter, r *http.Request) {
	inputs, err := decodeMeasurements(json.NewDecoder(r.Body))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid measurements: "+err.Error())
		return
	}
	assessment, err := a.assessor.Assess(r.Context(), inputs)
	if err != nil {
		a.logger.Error("assessment failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		respondError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	respondJSON(w, assessment)
}

// decodeMeasurements reads one JSON record; absent fields keep their defaults.
func decodeMeasurements(dec *json.Decoder) (ml.Measurements, error) {
	inputs := ml.DefaultMeasurements()
	if err := dec.Decode(&inputs); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return inputs, errors.New("request body too large")
		}
		return inputs, err
	}
	return inputs, nil
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
