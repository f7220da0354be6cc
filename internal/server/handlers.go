package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pindown/pindown/pkg/history"
	"github.com/pindown/pindown/pkg/lint"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/resolve"
)

// maxManifestBytes bounds request bodies. Real-world requirements files
// are a few kilobytes; a megabyte is already generous.
const maxManifestBytes = 1 << 20

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readManifest(w, r)
	if !ok {
		return
	}

	result := lint.Check(m)
	writeJSON(w, http.StatusOK, map[string]any{
		"findings": result.Findings,
		"errors":   result.Errors(),
		"warnings": result.Warnings(),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readManifest(w, r)
	if !ok {
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	checker := resolve.NewChecker(s.chains(m))
	report, err := checker.Check(r.Context(), m, resolve.Options{
		Workers: s.workers,
		Refresh: refresh,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.Save(r.Context(), history.NewEntry(report)); err != nil {
			s.logger.Warn("saving history entry failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":    report.Path,
		"results": report.Results,
		"counts":  report.Counts(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history store not configured")
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// readManifest parses the request body as requirements text. On failure a
// response has already been written and ok is false.
func (s *Server) readManifest(w http.ResponseWriter, r *http.Request) (*manifest.Manifest, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxManifestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty manifest")
		return nil, false
	}
	if len(body) > maxManifestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "manifest too large")
		return nil, false
	}

	m, err := manifest.Parse(bytes.NewReader(body), "request")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
