package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bidindex/pkg/common"
	"bidindex/pkg/config"
	"bidindex/pkg/core"
	"bidindex/pkg/logging"
	"bidindex/pkg/present"
	"bidindex/pkg/source"
	"bidindex/pkg/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxUploadBytes = 32 << 20
	maxKeyBody     = 4 << 10
)

type Server struct {
	session *core.Session
	store   storage.Backend
	symbol  string
	policy  common.DuplicatePolicy
	router  *chi.Mux
	server  *http.Server
}

// NewServer exposes session over HTTP. store may be nil, in which case the
// export and import endpoints answer 503.
func NewServer(session *core.Session, cfg *config.Config, store storage.Backend) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	policy, err := common.ParsePolicy(cfg.Source.DuplicatePolicy)
	if err != nil {
		policy = common.PolicyIgnore
	}

	s := &Server{
		session: session,
		store:   store,
		symbol:  cfg.Source.CurrencySymbol,
		policy:  policy,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/bids", s.handleList)
		r.Post("/bids", s.handleInsert)
		r.Get("/bids/{id}", s.handleGet)
		r.Delete("/bids/{id}", s.handleDelete)

		r.Get("/default", s.handleGetDefault)
		r.Put("/default", s.handleSetDefault)

		r.Post("/load", s.handleLoad)
		r.Post("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/stats", s.handleStats)
		r.Post("/reset", s.handleReset)
	})
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logging.Component("api").Info("listening", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	order, err := common.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment;filename=bids_"+order.String()+".csv")
		_, err := s.session.Dump(order, present.NewCSV(w))
		if errors.Is(err, core.ErrUnsupportedOrder) {
			w.Header().Del("Content-Disposition")
			respondError(w, r, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			logging.FromContext(r.Context()).Error("csv dump failed", "order", order.String(), "error", err)
		}
		return
	}

	records, err := s.session.Records(order)
	if errors.Is(err, core.ErrUnsupportedOrder) {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order":   order.String(),
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start := time.Now()
	rec, found := s.session.Find(id)
	duration := time.Since(start)

	if !found {
		respondError(w, r, http.StatusNotFound, errors.New("bid not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"record":     rec,
		"latency_ns": duration.Nanoseconds(),
	})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var rec common.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&rec); err != nil {
		respondError(w, r, http.StatusBadRequest, errors.New("invalid body"))
		return
	}

	inserted, err := s.session.Insert(rec)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]interface{}{
		"id":        rec.ID,
		"inserted":  inserted,
		"duplicate": !inserted,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.session.Remove(chi.URLParam(r, "id")) {
		respondError(w, r, http.StatusNotFound, errors.New("bid not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDefault(w http.ResponseWriter, r *http.Request) {
	key := s.session.DefaultKey()
	rec, found := s.session.FindDefault()
	resp := map[string]interface{}{"key": key, "found": found}
	if found {
		resp["record"] = rec
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxKeyBody)).Decode(&req); err != nil || req.Key == "" {
		respondError(w, r, http.StatusBadRequest, errors.New("body must be {\"key\": \"...\"}"))
		return
	}
	s.session.SetDefaultKey(req.Key)
	respondJSON(w, http.StatusOK, map[string]string{"key": req.Key})
}

func (s *Server) queryPolicy(r *http.Request) (common.DuplicatePolicy, error) {
	if p := r.URL.Query().Get("policy"); p != "" {
		return common.ParsePolicy(p)
	}
	return s.policy, nil
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	policy, err := s.queryPolicy(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	src, err := source.NewCSVSource(http.MaxBytesReader(w, r.Body, maxUploadBytes), s.symbol)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.session.Load(r.Context(), src, policy)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	logging.WithFields(r.Context(), "inserted", res.Inserted, "skipped", res.Skipped).Info("csv loaded")
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	order, err := common.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	policy, err := s.queryPolicy(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	exp := storage.NewExporter(s.store, policy, 0)
	n, err := s.session.Dump(order, exp)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order":    order.String(),
		"exported": n,
		"written":  exp.Written(),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	policy, err := s.queryPolicy(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	src, err := s.store.Source()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	res, err := s.session.Load(r.Context(), src, policy)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Stats())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
