// Package httpserver implements the REST transport for the pipeline service.
//
// All routes expect an x-actor-id header forwarded by the Gateway.
//
// Routes:
//
//	POST /candidates                       → create candidate (status SCREENING)
//	GET  /candidates?companyId=…           → list a company's candidates
//	POST /candidates/{id}/status           → state-machine transition
//	POST /candidates/{id}/note             → add/update free-text note
//	POST /candidates/{id}/score            → record assessment score (0-100)
//	POST /candidates/{id}/flag             → red-flag a candidate
//	GET  /companies/{id}/breakdown         → screening-outcome breakdown
//	GET  /companies/{id}/performance       → marketplace performance row
//	PUT  /jobs/{id}/recruiters             → replace assigned-recruiter set
//	GET  /recruiters?managerId=…           → recruiters a manager may assign
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"zepul/pipeline-service/internal/assignment"
	"zepul/pipeline-service/internal/pipeline"
	"zepul/pipeline-service/internal/query"
)

// Handler holds shared dependencies.
type Handler struct {
	engine      *pipeline.Engine
	queries     *query.Service
	coordinator *assignment.Coordinator
}

// NewHandler returns a configured Handler.
func NewHandler(engine *pipeline.Engine, queries *query.Service, coordinator *assignment.Coordinator) *Handler {
	return &Handler{engine: engine, queries: queries, coordinator: coordinator}
}

// RegisterRoutes mounts all pipeline-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/candidates", h.handleCandidates)
	mux.HandleFunc("/candidates/", h.handleCandidateAction)
	mux.HandleFunc("/companies/", h.handleCompanyQuery)
	mux.HandleFunc("/jobs/", h.handleJobAction)
	mux.HandleFunc("/recruiters", h.handleRecruiters)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleCandidates handles GET /candidates and POST /candidates.
func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCandidates(w, r)
	case http.MethodPost:
		h.createCandidate(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCandidateAction handles POST /candidates/{id}/status|note|score|flag.
func (h *Handler) handleCandidateAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	candidateID := parts[1]
	action := parts[2]

	switch action {
	case "status":
		h.changeStatus(w, r, candidateID)
	case "note":
		h.addNote(w, r, candidateID)
	case "score":
		h.setScore(w, r, candidateID)
	case "flag":
		h.flagCandidate(w, r, candidateID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// handleCompanyQuery handles GET /companies/{id}/breakdown|performance.
func (h *Handler) handleCompanyQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	companyID := parts[1]
	switch parts[2] {
	case "breakdown":
		h.breakdown(w, r, companyID)
	case "performance":
		h.performance(w, r, companyID)
	default:
		jsonError(w, fmt.Sprintf("unknown query %q", parts[2]), http.StatusNotFound)
	}
}

// handleJobAction handles PUT /jobs/{id}/recruiters.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "recruiters" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.assignRecruiters(w, r, parts[1])
	case http.MethodGet:
		h.listAssignees(w, r, parts[1])
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRecruiters handles GET /recruiters?managerId=….
func (h *Handler) handleRecruiters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	managerID := r.URL.Query().Get("managerId")
	if managerID == "" {
		jsonError(w, "managerId query parameter is required", http.StatusBadRequest)
		return
	}

	ids, err := h.coordinator.ListAssignable(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "listAssignable", err)
		return
	}
	jsonOK(w, map[string][]string{"recruiterIds": ids})
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) createCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		JobID string `json:"jobId"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.JobID == "" {
		jsonError(w, "body must contain jobId and name", http.StatusBadRequest)
		return
	}

	c, err := h.engine.Create(r.Context(), actorID, body.JobID, body.Name)
	if err != nil {
		writeDomainError(w, "createCandidate", err)
		return
	}
	jsonCreated(w, c)
}

func (h *Handler) listCandidates(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}

	companyID := r.URL.Query().Get("companyId")
	if companyID == "" {
		jsonError(w, "companyId query parameter is required", http.StatusBadRequest)
		return
	}

	candidates, err := h.engine.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "listCandidates", err)
		return
	}
	if candidates == nil {
		candidates = []pipeline.Candidate{}
	}
	jsonOK(w, candidates)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, candidateID string) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}

	c, err := h.engine.ChangeStatus(r.Context(), actorID, candidateID, body.Status)
	if err != nil {
		writeDomainError(w, "changeStatus", err)
		return
	}
	jsonOK(w, c)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request, candidateID string) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	c, err := h.engine.Annotate(r.Context(), actorID, candidateID, body.Note)
	if err != nil {
		writeDomainError(w, "addNote", err)
		return
	}
	jsonOK(w, c)
}

func (h *Handler) setScore(w http.ResponseWriter, r *http.Request, candidateID string) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	c, err := h.engine.SetScore(r.Context(), actorID, candidateID, body.Score)
	if err != nil {
		writeDomainError(w, "setScore", err)
		return
	}
	jsonOK(w, c)
}

func (h *Handler) flagCandidate(w http.ResponseWriter, r *http.Request, candidateID string) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	c, err := h.engine.Flag(r.Context(), actorID, candidateID)
	if err != nil {
		writeDomainError(w, "flagCandidate", err)
		return
	}
	jsonOK(w, c)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request, companyID string) {
	b, err := h.queries.Breakdown(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "breakdown", err)
		return
	}
	jsonOK(w, b)
}

func (h *Handler) performance(w http.ResponseWriter, r *http.Request, companyID string) {
	row, err := h.queries.PerformanceRow(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "performance", err)
		return
	}
	jsonOK(w, row)
}

func (h *Handler) assignRecruiters(w http.ResponseWriter, r *http.Request, jobID string) {
	actorID, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		RecruiterIDs []string `json:"recruiterIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "body must contain recruiterIds", http.StatusBadRequest)
		return
	}

	set, err := h.coordinator.Assign(r.Context(), actorID, jobID, body.RecruiterIDs)
	if err != nil {
		writeDomainError(w, "assignRecruiters", err)
		return
	}
	jsonOK(w, map[string][]string{"recruiterIds": set})
}

func (h *Handler) listAssignees(w http.ResponseWriter, r *http.Request, jobID string) {
	ids, err := h.coordinator.Assignees(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, "listAssignees", err)
		return
	}
	jsonOK(w, map[string][]string{"recruiterIds": ids})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// actorFrom extracts the x-actor-id header forwarded by the Gateway.
func actorFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := r.Header.Get("x-actor-id")
	if actorID == "" {
		jsonError(w, "missing x-actor-id header", http.StatusUnauthorized)
		return "", false
	}
	return actorID, true
}

// writeDomainError maps domain errors to HTTP responses. Clients distinguish
// "your action was invalid" (4xx) from "please try again" (409 retryable)
// from "something went wrong" (500).
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var (
		it *pipeline.InvalidTransitionError
		ve *pipeline.ValidationError
		pe *pipeline.PersistenceError
	)
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		jsonError(w, "candidate not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrJobNotFound):
		jsonError(w, "job not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrForbidden):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &it):
		jsonError(w, it.Error(), http.StatusConflict)
	case errors.Is(err, pipeline.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"retryable": true,
		})
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.As(err, &pe):
		log.Printf("[pipeline] %s persistence error: %v", op, err)
		jsonError(w, "persistence error, contact support", http.StatusInternalServerError)
	default:
		log.Printf("[pipeline] %s error: %v", op, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) { writeJSON(w, http.StatusOK, v) }

func jsonCreated(w http.ResponseWriter, v any) { writeJSON(w, http.StatusCreated, v) }

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
