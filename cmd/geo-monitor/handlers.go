package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/openclaw/geo-monitor/internal/monitoring"
	"github.com/openclaw/geo-monitor/internal/report"
	"github.com/sirupsen/logrus"
)

type runController interface {
	Start(ctx context.Context) error
	Stop() bool
	Status() monitoring.Status
}

type metricsSource interface {
	GetMetrics() string
}

type recordLoader interface {
	LoadAll(days int) ([]models.Record, error)
}

// API is the HTTP control surface of the service
type API struct {
	config     *config.Config
	controller runController
	metrics    metricsSource
	records    recordLoader
}

// Router registers every endpoint
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", a.metricsHandler).Methods("GET")
	router.HandleFunc("/status", a.statusHandler).Methods("GET")
	router.HandleFunc("/trigger", a.triggerHandler).Methods("POST")
	router.HandleFunc("/stop", a.stopHandler).Methods("POST")
	router.HandleFunc("/records", a.recordsHandler).Methods("GET")
	router.HandleFunc("/report", a.reportHandler).Methods("GET")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": config.Now().Format(time.RFC3339),
	})
}

func (a *API) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(a.metrics.GetMetrics()))
}

func (a *API) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.controller.Status())
}

func (a *API) triggerHandler(w http.ResponseWriter, r *http.Request) {
	err := a.controller.Start(context.Background())
	if errors.Is(err, monitoring.ErrAlreadyRunning) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		logrus.Errorf("Manual monitoring trigger failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Monitoring pass started"})
}

func (a *API) stopHandler(w http.ResponseWriter, r *http.Request) {
	if !a.controller.Stop() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no monitoring pass is running"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stop requested"})
}

func (a *API) recordsHandler(w http.ResponseWriter, r *http.Request) {
	days, err := a.days(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := a.records.LoadAll(days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) reportHandler(w http.ResponseWriter, r *http.Request) {
	days, err := a.days(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := a.records.LoadAll(days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	rep := report.Summarize(records, a.config.ProviderNames(), a.config.TopN, periodLabel(days))

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report.Markdown(rep)))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// days reads ?days=N, defaulting to REPORT_DAYS; 0 means every partition
func (a *API) days(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return a.config.ReportDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, errors.New("days must be a non-negative integer")
	}
	return days, nil
}

func periodLabel(days int) string {
	if days <= 0 {
		return "全部"
	}
	return "最近 " + strconv.Itoa(days) + " 天"
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
