package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kmorell/sitedigest/internal/parser"
	"github.com/kmorell/sitedigest/internal/pipeline"
	"github.com/kmorell/sitedigest/internal/store"
)

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	tenant := r.FormValue("tenant")
	if tenant == "" {
		jsonError(w, "tenant is required", http.StatusBadRequest)
		return
	}
	project := r.FormValue("project")
	if project == "" {
		jsonError(w, "project is required", http.StatusBadRequest)
		return
	}
	subcontractor := r.FormValue("subcontractor")

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	jobID := uuid.NewString()
	locator := fmt.Sprintf("reports/%s/%s", jobID, filename)

	if err := s.blobs.Put(r.Context(), locator, data); err != nil {
		s.log.Error("store report blob", "job_id", jobID, "error", err)
		jsonError(w, "failed to store report", http.StatusInternalServerError)
		return
	}

	rec := store.JobRecord{
		ID:            jobID,
		Filename:      filename,
		Locator:       locator,
		Tenant:        tenant,
		Project:       project,
		Subcontractor: subcontractor,
	}
	if err := s.jobs.Create(r.Context(), rec); err != nil {
		s.log.Error("create job record", "job_id", jobID, "error", err)
		jsonError(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	msg, err := json.Marshal(pipeline.Job{
		ID:            jobID,
		Locator:       locator,
		Tenant:        tenant,
		Project:       project,
		Subcontractor: subcontractor,
		PublishedAt:   time.Now().UTC(),
	})
	if err != nil {
		jsonError(w, "failed to encode job", http.StatusInternalServerError)
		return
	}
	if err := s.queue.Publish(r.Context(), msg); err != nil {
		s.log.Error("publish job", "job_id", jobID, "error", err)
		jsonError(w, "failed to enqueue job", http.StatusServiceUnavailable)
		return
	}

	s.log.Info("report accepted", "job_id", jobID, "filename", filename, "tenant", tenant, "project", project, "bytes", len(data))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   jobID,
		"status":   pipeline.StatusPending,
		"poll_url": fmt.Sprintf("/api/reports/%s", jobID),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	rec, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		s.log.Error("get job", "job_id", jobID, "error", err)
		jsonError(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
