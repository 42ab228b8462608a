package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/eval"
	"github.com/sant0-9/chartwise/internal/ingest"
	"github.com/sant0-9/chartwise/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fail maps err to a status. Unexpected errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrNoRows),
		errors.Is(err, ingest.ErrNoColumns),
		errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !ingest.Supported(name) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)))
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		s.fail(w, r, err)
		return
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+"_"+name)
	out, err := os.Create(path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if err := out.Close(); err != nil {
		s.fail(w, r, err)
		return
	}

	ds, err := s.pipeline.Ingest(r.Context(), path)
	if err != nil {
		os.Remove(path)
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.pipeline.Store().ListDatasets(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.pipeline.Store().GetDataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type generateRequest struct {
	Title string `json:"title"`
}

func (s *Server) generateDashboard(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	d, err := s.pipeline.Generate(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) listDashboards(w http.ResponseWriter, r *http.Request) {
	list, err := s.pipeline.Store().ListDashboards(r.Context(), r.URL.Query().Get("dataset_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.pipeline.Store().GetDashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type chatRequest struct {
	Command     string `json:"command"`
	DashboardID string `json:"dashboard_id"`
	SessionID   string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Success     bool               `json:"success"`
	SessionID   string             `json:"session_id"`
	Action      compiler.Action    `json:"action"`
	Explanation string             `json:"explanation"`
	Error       compiler.ErrorCode `json:"error,omitempty"`
	Dashboard   any                `json:"dashboard"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Command == "" || req.DashboardID == "" {
		writeError(w, http.StatusBadRequest, "command and dashboard_id are required")
		return
	}

	res, err := s.pipeline.Chat(r.Context(), req.SessionID, req.DashboardID, req.Command)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	a := res.Response.Action
	writeJSON(w, http.StatusOK, chatResponse{
		Success:     a.Success,
		SessionID:   res.SessionID,
		Action:      a,
		Explanation: a.Explanation,
		Error:       a.Error,
		Dashboard:   res.Dashboard,
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	sess, ok := s.pipeline.Sessions().Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"history":    sess.History(),
	})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if sess, ok := s.pipeline.Sessions().Lookup(id); ok {
		sess.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) evaluations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	results, err := s.pipeline.Store().ListEvaluations(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": nonNil(results),
		"summary": eval.Summarize(results),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
