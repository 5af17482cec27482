// Command tripgraph-server exposes the planning workflow over an HTTP
// JSON API: create a session, fetch its review payload, and submit
// review decisions. Prometheus metrics are served on /metrics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/tripgraph/flow"
	"github.com/dshills/tripgraph/flow/emit"
	"github.com/dshills/tripgraph/flow/store"
	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/model/openai"
	"github.com/dshills/tripgraph/planner"
	"github.com/dshills/tripgraph/travel"
)

func main() {
	var (
		addr     = flag.String("addr", ":8080", "listen address")
		offline  = flag.Bool("offline", false, "force offline mode: deterministic model and demo tool data")
		dbPath   = flag.String("db", "", "SQLite path for run persistence (default: in-memory)")
		mysqlDSN = flag.String("mysql-dsn", "", "MySQL DSN for run persistence (takes precedence over -db)")
		jsonLog  = flag.Bool("json-log", true, "emit workflow events as JSON lines")
	)
	flag.Parse()

	srv, err := newServer(*offline, *dbPath, *mysqlDSN, *jsonLog)
	if err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", srv.createSession)
	mux.HandleFunc("GET /sessions/{id}", srv.getSession)
	mux.HandleFunc("POST /sessions/{id}/decision", srv.submitDecision)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("tripgraph-server listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

type server struct {
	mu       sync.RWMutex
	sessions map[string]*planner.Session

	chat       model.ChatModel
	dispatcher *travel.Dispatcher
	store      store.Store[planner.PlanState]
	emitter    emit.Emitter
	metrics    *flow.Metrics
}

func newServer(offline bool, dbPath, mysqlDSN string, jsonLog bool) (*server, error) {
	cfg := travel.Config{
		AmadeusClientID:     os.Getenv("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: os.Getenv("AMADEUS_CLIENT_SECRET"),
		OpenWeatherAPIKey:   os.Getenv("OPENWEATHER_API_KEY"),
		Offline:             offline,
	}

	var st store.Store[planner.PlanState]
	switch {
	case mysqlDSN != "":
		mysqlStore, err := store.NewMySQLStore[planner.PlanState](mysqlDSN)
		if err != nil {
			return nil, err
		}
		st = mysqlStore
	case dbPath != "":
		sqlStore, err := store.NewSQLiteStore[planner.PlanState](dbPath)
		if err != nil {
			return nil, err
		}
		st = sqlStore
	default:
		st = store.NewMemStore[planner.PlanState]()
	}

	var chat model.ChatModel
	if key := os.Getenv("OPENAI_API_KEY"); !offline && key != "" {
		chat = openai.NewChatModel(key, "")
	} else {
		chat = model.NewOfflineModel()
	}

	return &server{
		sessions:   make(map[string]*planner.Session),
		chat:       chat,
		dispatcher: travel.NewDispatcher(travel.DefaultRegistry(cfg), nil),
		store:      st,
		emitter:    emit.NewLogEmitter(os.Stderr, jsonLog),
		metrics:    flow.NewMetrics(prometheus.DefaultRegisterer),
	}, nil
}

type createRequest struct {
	planner.TripRequest
}

type decisionRequest struct {
	Approve    bool   `json:"approve"`
	Regenerate bool   `json:"regenerate"`
	Feedback   string `json:"feedback"`
}

// sessionResponse is the review payload front ends act on. LastRound
// warns the client that the next decision ends the session regardless.
type sessionResponse struct {
	ID             string            `json:"id"`
	AwaitingReview bool              `json:"awaiting_review"`
	Done           bool              `json:"done"`
	Approved       bool              `json:"approved"`
	Iteration      int               `json:"iteration"`
	MaxIterations  int               `json:"max_iterations"`
	LastRound      bool              `json:"last_round"`
	Plan           string            `json:"plan"`
	ToolResults    map[string]string `json:"tool_results"`
	Notes          []string          `json:"notes"`
}

func (s *server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	session, err := planner.NewSession(req.TripRequest, planner.SessionConfig{
		Chat:       s.chat,
		Dispatcher: s.dispatcher,
		Store:      s.store,
		Emitter:    s.emitter,
		Metrics:    s.metrics,
	})
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	if _, err := session.RunToPause(r.Context()); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	s.sessions[session.RunID()] = session
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, toResponse(session))
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(session))
}

func (s *server) submitDecision(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("session not found"))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var err error
	switch {
	case req.Approve:
		_, err = session.Approve(r.Context())
	case req.Regenerate:
		_, err = session.Regenerate(r.Context())
	case req.Feedback != "":
		_, err = session.RequestChanges(r.Context(), req.Feedback)
	default:
		httpError(w, http.StatusBadRequest, fmt.Errorf("decision must approve, regenerate, or carry feedback"))
		return
	}
	if err != nil {
		httpError(w, http.StatusConflict, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(session))
}

func (s *server) lookup(id string) (*planner.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func toResponse(session *planner.Session) sessionResponse {
	state := session.State()

	plan := state.FinalPlan
	if plan == "" {
		plan = state.DraftPlan
	}

	return sessionResponse{
		ID:             session.RunID(),
		AwaitingReview: state.AwaitingReview,
		Done:           session.Done(),
		Approved:       state.Approved,
		Iteration:      state.IterationCount,
		MaxIterations:  planner.MaxIterations,
		LastRound:      state.AwaitingReview && state.IterationCount+1 >= planner.MaxIterations,
		Plan:           plan,
		ToolResults:    state.ToolResults,
		Notes:          state.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
