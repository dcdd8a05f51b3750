package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/agents/orchestrator"
	capabilityx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/capability"
	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

// Agent runs one conversational turn.
type Agent interface {
	Process(ctx context.Context, req contractx.ProcessRequest) (contractx.ProcessResult, error)
}

// Directory reads doctors and appointments for the dashboard routes.
// *schedule.Repo satisfies it.
type Directory interface {
	GetDoctor(ctx context.Context, id int64) (*schedulex.Doctor, error)
	ListDoctors(ctx context.Context, specialization string) ([]*schedulex.Doctor, error)
	GetAppointment(ctx context.Context, id int64) (*schedulex.Appointment, error)
	ListAppointments(ctx context.Context, filter schedulex.AppointmentFilter) ([]*schedulex.Appointment, error)
}

// Deps wires the handler into the rest of the system. LLM may be nil
// when no provider key is configured; the deep health probe then
// reports the provider as unconfigured.
type Deps struct {
	Agent     Agent
	Gateway   contractx.CapabilityGateway
	Directory Directory
	LLM       *openaisdk.Client
}

type Handler struct {
	agent     Agent
	gateway   contractx.CapabilityGateway
	directory Directory
	llm       *openaisdk.Client
	now       func() time.Time
}

func New(deps Deps) (*Handler, error) {
	if deps.Agent == nil {
		return nil, errors.New("http handler requires an agent")
	}
	if deps.Gateway == nil {
		return nil, errors.New("http handler requires a capability gateway")
	}
	if deps.Directory == nil {
		return nil, errors.New("http handler requires a directory")
	}
	return &Handler{
		agent:     deps.Agent,
		gateway:   deps.Gateway,
		directory: deps.Directory,
		llm:       deps.LLM,
		now:       time.Now,
	}, nil
}

// NewRouter assembles the middleware chain and the API routes.
func NewRouter(h *Handler, limiter *RateLimiter, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(origins))
	r.Use(limiter.Middleware)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", h.handleChat)

		api.Get("/capabilities", h.handleListCapabilities)
		api.Post("/capabilities/{name}", h.handleInvokeCapability)

		api.Get("/doctors", h.handleListDoctors)
		api.Get("/doctors/{doctorID}", h.handleGetDoctor)
		api.Get("/availability/{doctorID}", h.handleAvailability)

		api.Post("/appointments", h.handleCreateAppointment)
		api.Get("/appointments", h.handleListAppointments)
		api.Get("/appointments/{appointmentID}", h.handleGetAppointment)

		api.Post("/doctor/stats", h.handleDoctorStats)
		api.Post("/doctor/generate-report", h.handleGenerateReport)
	})

	return r
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      "Mediva Appointment Booking",
		"version":      "1.0.0",
		"capabilities": len(h.gateway.Catalog()),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"database":  "connected",
		"agent":     "ready",
	}
	if r.URL.Query().Get("deep") == "1" {
		status["llm"] = h.probeModels(r.Context())
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) probeModels(ctx context.Context) map[string]any {
	if h.llm == nil {
		return map[string]any{"status": "unconfigured"}
	}
	page, err := h.llm.Models.List(ctx)
	if err != nil {
		return map[string]any{"status": "unreachable", "error": err.Error()}
	}
	return map[string]any{"status": "reachable", "models": len(page.Data)}
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
		UserEmail string `json:"user_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.UserEmail) == "" {
		respondError(w, http.StatusBadRequest, "user_email is required for conversation isolation")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.agent.Process(r.Context(), contractx.ProcessRequest{
		SessionID: sessionID,
		UserEmail: payload.UserEmail,
		Text:      payload.Message,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orchestratorx.ErrInvalidMessage) ||
			errors.Is(err, orchestratorx.ErrInvalidSession) ||
			errors.Is(err, orchestratorx.ErrUserRequired) {
			status = http.StatusBadRequest
		}
		respondError(w, status, fmt.Sprintf("Error processing message: %v", err))
		return
	}

	resp := map[string]any{
		"session_id":      sessionID,
		"response":        result.Response,
		"tool_calls_made": result.CapabilityCalls,
		"success":         result.Success,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	catalog := h.gateway.Catalog()
	tools := make([]map[string]any, 0, len(catalog))
	for _, info := range catalog {
		entry := map[string]any{
			"name":        info.Name,
			"description": info.Desc,
		}
		if params, ok := capabilityx.Required(info.Name); ok && len(params) > 0 {
			entry["required_parameters"] = params
		}
		tools = append(tools, entry)
	}
	respondJSON(w, http.StatusOK, map[string]any{"tools": tools, "count": len(tools)})
}

// handleInvokeCapability runs one capability outside a conversation.
// When the body carries both session_id and patient_email they become
// the memory scope, so direct invocations can feed the same
// conversation a chat session reads.
func (h *Handler) handleInvokeCapability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	call := contractx.CapabilityCall{Name: name, Args: args}
	sessionID, _ := args["session_id"].(string)
	email, _ := args["patient_email"].(string)
	if sessionID != "" && email != "" {
		if key, err := statex.NewSessionKey(sessionID, email); err == nil {
			call.Scope = &key
		}
	}

	result, err := h.gateway.Invoke(r.Context(), call)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Capability execution failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, result.Payload)
}

func (h *Handler) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.directory.ListDoctors(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}
	out := make([]map[string]any, 0, len(doctors))
	for _, doctor := range doctors {
		out = append(out, doctor.AsMap())
	}
	respondJSON(w, http.StatusOK, map[string]any{"doctors": out, "count": len(out)})
}

func (h *Handler) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r, chi.URLParam(r, "doctorID"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, doctor.AsMap())
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	doctor, ok := h.loadDoctor(w, r, chi.URLParam(r, "doctorID"))
	if !ok {
		return
	}

	result, err := h.gateway.Invoke(r.Context(), contractx.CapabilityCall{
		Name: capabilityx.CapabilityDoctorAvailability,
		Args: map[string]any{"doctor_name": doctor.Name, "date": date},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Capability execution failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, result.Payload)
}

// handleCreateAppointment books directly, bypassing the agent. The
// whole capability envelope goes back so a conflict's suggested slots
// reach the client instead of collapsing into an HTTP error.
func (h *Handler) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PatientName     string `json:"patient_name"`
		PatientEmail    string `json:"patient_email"`
		DoctorID        int64  `json:"doctor_id"`
		AppointmentDate string `json:"appointment_date"`
		AppointmentTime string `json:"appointment_time"`
		Symptoms        string `json:"symptoms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doctor, ok := h.loadDoctor(w, r, strconv.FormatInt(payload.DoctorID, 10))
	if !ok {
		return
	}

	result, err := h.gateway.Invoke(r.Context(), contractx.CapabilityCall{
		Name: capabilityx.CapabilityBookAppointment,
		Args: map[string]any{
			"patient_name":     payload.PatientName,
			"patient_email":    payload.PatientEmail,
			"doctor_name":      doctor.Name,
			"appointment_date": payload.AppointmentDate,
			"appointment_time": payload.AppointmentTime,
			"symptoms":         payload.Symptoms,
		},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Capability execution failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, result.Payload)
}

func (h *Handler) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := schedulex.AppointmentFilter{
		PatientEmail: q.Get("patient_email"),
		Status:       q.Get("status"),
	}
	if raw := q.Get("doctor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid doctor_id")
			return
		}
		filter.DoctorID = id
	}
	if raw := q.Get("date"); raw != "" {
		date, err := schedulex.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = date
	}

	appts, err := h.directory.ListAppointments(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	out := make([]map[string]any, 0, len(appts))
	for _, appt := range appts {
		out = append(out, appt.AsMap())
	}
	respondJSON(w, http.StatusOK, map[string]any{"appointments": out, "count": len(out)})
}

func (h *Handler) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	appt, err := h.directory.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	respondJSON(w, http.StatusOK, appt.AsMap())
}

func (h *Handler) handleDoctorStats(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DoctorID  int64  `json:"doctor_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doctor, ok := h.loadDoctor(w, r, strconv.FormatInt(payload.DoctorID, 10))
	if !ok {
		return
	}

	result, err := h.gateway.Invoke(r.Context(), contractx.CapabilityCall{
		Name: capabilityx.CapabilityDoctorStats,
		Args: map[string]any{
			"doctor_name": doctor.Name,
			"start_date":  payload.StartDate,
			"end_date":    payload.EndDate,
		},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Capability execution failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, result.Payload)
}

// handleGenerateReport runs one doctor-side agent turn and pushes the
// result to the doctor through the notification capability.
func (h *Handler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DoctorID int64  `json:"doctor_id"`
		Query    string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doctor, ok := h.loadDoctor(w, r, strconv.FormatInt(payload.DoctorID, 10))
	if !ok {
		return
	}

	sessionID := fmt.Sprintf("doctor_%d_%d", doctor.ID, h.now().Unix())
	result, err := h.agent.Process(r.Context(), contractx.ProcessRequest{
		SessionID: sessionID,
		UserEmail: doctor.Email,
		Text:      payload.Query,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing message: %v", err))
		return
	}

	if result.Success {
		note, err := h.gateway.Invoke(r.Context(), contractx.CapabilityCall{
			Name: capabilityx.CapabilityDoctorNotification,
			Args: map[string]any{
				"doctor_email":      doctor.Email,
				"notification_type": "report",
				"title":             "Daily Report",
				"message":           result.Response,
			},
		})
		if err != nil || !note.Succeeded() {
			log.Warn().Err(err).Str("doctor_email", doctor.Email).Msg("report notification failed")
		}
	}

	resp := map[string]any{
		"session_id":      sessionID,
		"response":        result.Response,
		"tool_calls_made": result.CapabilityCalls,
		"success":         result.Success,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	respondJSON(w, http.StatusOK, resp)
}

// loadDoctor resolves a doctor id from the path or body, writing the
// error response itself when the id is bad or unknown.
func (h *Handler) loadDoctor(w http.ResponseWriter, r *http.Request, raw string) (*schedulex.Doctor, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid doctor id")
		return nil, false
	}
	doctor, err := h.directory.GetDoctor(r.Context(), id)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Doctor not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "failed to load doctor")
		return nil, false
	}
	return doctor, true
}
