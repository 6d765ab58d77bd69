/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/hashutil"
	whttp "github.com/carverauto/warehouse/pkg/http"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/metrics"
	"github.com/carverauto/warehouse/pkg/models"
	"github.com/carverauto/warehouse/pkg/version"
)

// APIServer answers sync queries against the archive.
type APIServer struct {
	router         *mux.Router
	archive        ArchiveReader
	corsConfig     models.CORSConfig
	recentDays     int
	logger         logger.Logger
	requests       metrics.RequestRecorder
	metricsHandler http.Handler
	now            func() time.Time
}

// NewAPIServer creates a new API server instance over store.
func NewAPIServer(config models.CORSConfig, store ArchiveReader, log logger.Logger, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		archive:    store,
		corsConfig: config,
		recentDays: defaultRecentDays,
		logger:     log,
		now:        time.Now,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithRecentDays sets how many days /sync/status reports.
func WithRecentDays(n int) func(server *APIServer) {
	return func(server *APIServer) {
		if n > 0 {
			server.recentDays = n
		}
	}
}

// WithRequestRecorder reports every request to rec.
func WithRequestRecorder(rec metrics.RequestRecorder) func(server *APIServer) {
	return func(server *APIServer) {
		server.requests = rec
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) func(server *APIServer) {
	return func(server *APIServer) {
		server.metricsHandler = h
	}
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) func(server *APIServer) {
	return func(server *APIServer) {
		server.now = now
	}
}

// Handler returns the router wrapped in the CORS middleware.
func (s *APIServer) Handler() http.Handler {
	return whttp.CommonMiddleware(s.router, s.corsConfig, s.logger)
}

func (s *APIServer) setupRoutes() {
	s.router.Use(whttp.LoggingMiddleware(s.logger, s.requests))

	s.router.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)

	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/sync/status", s.getSyncStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/sync/{date}", s.getDayArchive).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/sync/{date}/snapshots", s.getDaySnapshots).Methods(http.MethodGet)
}

type healthResponse struct {
	Status string `json:"status"`
	version.Info
}

func (s *APIServer) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, healthResponse{Status: "ok", Info: version.GetInfo()})
}

// getSyncStatus maps each of the most recent days that has a bucket to the
// hash of its container.
func (s *APIServer) getSyncStatus(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	status := make(map[string]string, s.recentDays)

	for _, key := range s.archive.Keyer().Recent(now, s.recentDays) {
		if !s.archive.Retained(key, now) {
			continue
		}

		data, err := s.archive.Read(key)
		if errors.Is(err, archive.ErrNotFound) {
			continue
		}

		if err != nil {
			s.logger.Error().Err(err).Str("day", key).Msg("Failed to read bucket for status")
			writeError(w, "failed to read archive", http.StatusInternalServerError)

			return
		}

		status[key] = hashutil.HexSHA256(data)
	}

	s.writeJSONResponse(w, status)
}

// resolveDay normalizes the {date} path variable and applies the retention
// window. It writes the error response itself and returns ok=false on failure.
func (s *APIServer) resolveDay(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := mux.Vars(r)["date"]

	key, err := s.archive.Keyer().Normalize(raw)
	if err != nil {
		writeError(w, "invalid date: "+raw, http.StatusBadRequest)
		return "", false
	}

	if !s.archive.Retained(key, s.now()) {
		writeError(w, "no archive for "+key, http.StatusNotFound)
		return "", false
	}

	return key, true
}

func (s *APIServer) getDayArchive(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveDay(w, r)
	if !ok {
		return
	}

	data, err := s.archive.Read(key)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, "no archive for "+key, http.StatusNotFound)
		return
	}

	if err != nil {
		s.logger.Error().Err(err).Str("day", key).Msg("Failed to read bucket")
		writeError(w, "failed to read archive", http.StatusInternalServerError)

		return
	}

	etag := `"` + hashutil.HexSHA256(data) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), data) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`.tgz"`)
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := w.Write(data); err != nil {
		s.logger.Warn().Err(err).Str("day", key).Msg("Failed to write archive response")
	}
}

func (s *APIServer) getDaySnapshots(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveDay(w, r)
	if !ok {
		return
	}

	bucket, err := s.archive.Load(key)

	switch {
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, "no archive for "+key, http.StatusNotFound)
	case err != nil:
		s.logger.Error().Err(err).Str("day", key).Msg("Failed to decode bucket")
		writeError(w, "archive is unreadable", http.StatusInternalServerError)
	default:
		s.writeJSONResponse(w, bucket)
	}
}

// etagMatches reports whether any entity tag in an If-None-Match header names
// data. Tags may be quoted or bare, weak, hex or base64.
func etagMatches(header string, data []byte) bool {
	for _, candidate := range splitETags(header) {
		if candidate == "*" || hashutil.EqualSHA256(strings.TrimPrefix(candidate, "W/"), data) {
			return true
		}
	}

	return false
}

func (s *APIServer) writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
