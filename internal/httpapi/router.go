package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"freelas-watch/internal/services/polling"
)

// Service is the part of polling.Service the HTTP API needs.
type Service interface {
	Trigger() bool
	Running() bool
	LastReport() (polling.CycleReport, bool)
	Keywords() []string
	SourceNames() []string
}

type LedgerSizer interface {
	Len() int
}

type Handler struct {
	service Service
	ledger  LedgerSizer
}

func NewHandler(service Service, ledger LedgerSizer) *Handler {
	return &Handler{service: service, ledger: ledger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.handleHealth)
	r.Get("/status", h.handleStatus)
	r.Get("/polling", h.handlePoll)
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/allocs", pprof.Handler("allocs").ServeHTTP)
		r.Get("/block", pprof.Handler("block").ServeHTTP)
		r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		r.Get("/heap", pprof.Handler("heap").ServeHTTP)
		r.Get("/mutex", pprof.Handler("mutex").ServeHTTP)
		r.Get("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)
	})
	return r
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	if !h.service.Trigger() {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Poll cycle already running"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Poll cycle started"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Running    bool                 `json:"running"`
	LedgerSize int                  `json:"ledger_size"`
	Keywords   []string             `json:"keywords"`
	Sources    []string             `json:"sources"`
	LastCycle  *polling.CycleReport `json:"last_cycle,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Running:    h.service.Running(),
		LedgerSize: h.ledger.Len(),
		Keywords:   h.service.Keywords(),
		Sources:    h.service.SourceNames(),
	}
	if last, ok := h.service.LastReport(); ok {
		resp.LastCycle = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
