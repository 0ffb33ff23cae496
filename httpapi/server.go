// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpapi exposes the torrent history as a small read-only HTTP
// surface, shared by anything that wants to poll torrent state without
// speaking the RPC wire protocol.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/uber/torrentd/history"
	"github.com/uber/torrentd/lib/middleware"
	"github.com/uber/torrentd/lib/tracing"
)

// HealthChecker reports whether the daemon's engine alert subscription is
// still alive. *alerts.Adapter satisfies this.
type HealthChecker interface {
	Alive() bool
}

// Server is the chi router backing the HTTP status surface.
type Server struct {
	history *history.Registry
	health  HealthChecker
	log     *zap.SugaredLogger
	router  chi.Router
}

// New builds a Server reading from h and reporting health via hc.
func New(h *history.Registry, hc HealthChecker, stats tally.Scope, log *zap.SugaredLogger) *Server {
	s := &Server{history: h, health: hc, log: log}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(tracing.HTTPMiddleware("torrentd"))
	r.Use(middleware.LatencyTimer(stats))
	r.Use(middleware.StatusCounter(stats))
	r.Get("/status/updated", s.handleStatusUpdated)
	r.Get("/status/removed", s.handleStatusRemoved)
	r.Get("/healthz", s.handleHealthz)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", uuid.New().String())
		next.ServeHTTP(w, r)
	})
}

func sinceParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("since")
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleStatusUpdated(w http.ResponseWriter, r *http.Request) {
	since, err := sinceParam(r)
	if err != nil {
		http.Error(w, "invalid since parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.history.UpdatedSince(since))
}

func (s *Server) handleStatusRemoved(w http.ResponseWriter, r *http.Request) {
	since, err := sinceParam(r)
	if err != nil {
		http.Error(w, "invalid since parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.history.RemovedSince(since))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.Alive() {
		http.Error(w, "alert subscription not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
