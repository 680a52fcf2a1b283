package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/export"
	"github.com/jobtrail/jobtrail/internal/notify"
	"github.com/jobtrail/jobtrail/internal/pipeline"
	"github.com/jobtrail/jobtrail/internal/store"
)

// applicationJSON is the wire shape for one application record
type applicationJSON struct {
	ID            int64  `json:"id"`
	Company       string `json:"company"`
	Role          string `json:"role"`
	JobType       string `json:"job_type"`
	Country       string `json:"country"`
	Source        string `json:"source"`
	DateApplied   string `json:"date_applied"`
	ResumeVersion string `json:"resume_version"`
	Status        string `json:"status"`
	StatusDate    string `json:"status_date"`
	Notes         string `json:"notes,omitempty"`
}

func toJSON(app *store.Application) applicationJSON {
	return applicationJSON{
		ID:            app.ID,
		Company:       app.Company,
		Role:          app.Role,
		JobType:       app.JobType,
		Country:       app.Country,
		Source:        app.Source,
		DateApplied:   app.DateApplied,
		ResumeVersion: app.ResumeVersion,
		Status:        string(app.Status),
		StatusDate:    app.StatusDate,
		Notes:         app.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.List()
	if err != nil {
		log.Printf("Failed to list applications: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load applications")
		return
	}

	out := make([]applicationJSON, 0, len(apps))
	for i := range apps {
		out = append(out, toJSON(&apps[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	var req applicationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Company = strings.TrimSpace(req.Company)
	req.Role = strings.TrimSpace(req.Role)
	if req.Company == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "Company and role are required")
		return
	}
	if req.Status == "" {
		req.Status = string(classify.StatusPending)
	}
	if !classify.ValidStatus(classify.Status(req.Status)) {
		writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	today := time.Now().Format("2006-01-02")
	if req.DateApplied == "" {
		req.DateApplied = today
	}
	if req.JobType == "" {
		req.JobType = "Remote"
	}
	if req.Country == "" {
		req.Country = "Unknown"
	}
	if req.Source == "" {
		req.Source = "Manual"
	}
	if req.ResumeVersion == "" {
		req.ResumeVersion = req.Role
	}

	existing, err := s.store.FindByCompanyRole(req.Company, req.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check for duplicates")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "An application for this company and role already exists")
		return
	}

	app := &store.Application{
		Company:       req.Company,
		Role:          req.Role,
		JobType:       req.JobType,
		Country:       req.Country,
		Source:        req.Source,
		DateApplied:   req.DateApplied,
		ResumeVersion: req.ResumeVersion,
		Status:        classify.Status(req.Status),
		StatusDate:    today,
		Notes:         req.Notes,
	}
	if err := s.store.Insert(app); err != nil {
		log.Printf("Failed to add application: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add application")
		return
	}

	writeJSON(w, http.StatusCreated, toJSON(app))
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	existing, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load application")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Application not found")
		return
	}

	var req applicationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Company = strings.TrimSpace(req.Company)
	req.Role = strings.TrimSpace(req.Role)
	if req.Company == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "Company and role are required")
		return
	}

	existing.Company = req.Company
	existing.Role = req.Role
	existing.JobType = req.JobType
	existing.Country = req.Country
	existing.Source = req.Source
	existing.DateApplied = req.DateApplied
	existing.ResumeVersion = req.ResumeVersion
	existing.Notes = req.Notes

	if err := s.store.Update(existing); err != nil {
		log.Printf("Failed to update application %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update application")
		return
	}

	writeJSON(w, http.StatusOK, toJSON(existing))
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	if err := s.store.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "Application not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"success": "Application deleted"})
}

func (s *Server) handleAPIUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := classify.Status(req.Status)
	if !classify.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	today := time.Now().Format("2006-01-02")
	if err := s.store.UpdateStatus(id, status, today); err != nil {
		writeError(w, http.StatusNotFound, "Application not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"success":     "Status updated",
		"status_date": today,
	})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	total := 0
	byStatus := make(map[string]int, len(stats))
	for status, n := range stats {
		byStatus[string(status)] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
	})
}

func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load applications")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="job_applications.csv"`)
	if err := export.WriteCSV(w, apps); err != nil {
		log.Printf("CSV export failed: %v", err)
	}
}

func (s *Server) handleAPIScan(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusBadRequest, "Mailbox not configured. Add inbox settings first.")
		return
	}
	if !s.rateLimiter.Allow("scan") {
		writeError(w, http.StatusTooManyRequests, "Too many scan requests. Please wait a moment.")
		return
	}

	// The scan outlives the HTTP request, so it does not use r.Context()
	id, err := s.runner.Start(context.Background())
	if err != nil {
		if errors.Is(err, pipeline.ErrScanActive) {
			writeError(w, http.StatusConflict, "A scan is already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	if err := s.store.SetSetting("last_scan_time", now); err != nil {
		log.Printf("Failed to record scan time: %v", err)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"scan_id":        id,
		"message":        "Scanning emails for " + s.monitoredEmail(),
		"last_scan_time": now,
	})
}

func (s *Server) handleAPIScanStatus(w http.ResponseWriter, r *http.Request) {
	lastScan, _ := s.store.GetSetting("last_scan_time")

	var snap pipeline.Snapshot
	if s.runner != nil {
		snap = s.runner.Status()
	} else {
		snap.Phase = pipeline.ScanIdle
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":             snap.ID,
		"status":         snap.Phase,
		"is_scanning":    snap.Scanning,
		"start_time":     snap.StartedAt,
		"end_time":       snap.FinishedAt,
		"result":         snap.Summary,
		"error":          snap.Error,
		"last_scan_time": lastScan,
	})
}

func (s *Server) handleAPISettingsEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := notify.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	if err := s.store.SetSetting("monitored_email", req.Email); err != nil {
		log.Printf("Failed to update monitored email: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Email updated",
	})
}
