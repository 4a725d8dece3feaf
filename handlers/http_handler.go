// Package handlers provides HTTP request handlers for the medication companion API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/giygas/medcompanion-api/email"
	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
	"github.com/giygas/medcompanion-api/speech"
	"github.com/giygas/medcompanion-api/validation"
)

const (
	// ChatTemperature keeps answers close to the source wording
	ChatTemperature = 0.2

	// DefaultMaxRequestBody applies when Dependencies.MaxRequestBody is unset
	DefaultMaxRequestBody = 64 * 1024

	// audio clips can outlive the server write timeout
	audioWriteTimeout = 2 * time.Minute
	audioChunkSize    = 4 * 1024

	maxScheduledTimeLength = 64
	maxDoseLength          = 200
)

// Dependencies groups everything the handlers need. Speech and Alerts may be
// nil when the matching vendor is not configured.
type Dependencies struct {
	DrugInfo       interfaces.DrugInfoService
	Reminders      interfaces.ReminderComposer
	Speech         interfaces.SpeechSynthesizer
	Alerts         interfaces.AlertDispatcher
	Chat           interfaces.TextGenerator
	ChatModel      string
	Health         interfaces.HealthChecker
	Validator      interfaces.InputValidator
	MaxRequestBody int64
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	drugInfo       interfaces.DrugInfoService
	reminders      interfaces.ReminderComposer
	speech         interfaces.SpeechSynthesizer
	alerts         interfaces.AlertDispatcher
	chat           interfaces.TextGenerator
	chatModel      string
	health         interfaces.HealthChecker
	validator      interfaces.InputValidator
	maxRequestBody int64
}

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	validator := deps.Validator
	if validator == nil {
		validator = validation.NewInputValidator()
	}
	maxBody := deps.MaxRequestBody
	if maxBody <= 0 {
		maxBody = DefaultMaxRequestBody
	}

	return &HTTPHandlerImpl{
		drugInfo:       deps.DrugInfo,
		reminders:      deps.Reminders,
		speech:         deps.Speech,
		alerts:         deps.Alerts,
		chat:           deps.Chat,
		chatModel:      deps.ChatModel,
		health:         deps.Health,
		validator:      validator,
		maxRequestBody: maxBody,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithFailure maps a service error to a status code and message
func (h *HTTPHandlerImpl) respondWithFailure(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	var upstreamErr *entities.UpstreamError
	var fieldErr *validation.FieldError

	switch {
	case errors.As(err, &fieldErr):
		h.RespondWithError(w, http.StatusBadRequest, fieldErr.Error())
	case errors.Is(err, entities.ErrInvalidInput):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrNotFound):
		h.RespondWithError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, entities.ErrNotConfigured), errors.Is(err, email.ErrDispatcherClosed):
		h.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		logging.Debug("Client went away", "path", r.URL.Path)
	case errors.As(err, &upstreamErr):
		logging.Warn("Upstream call failed",
			"vendor", upstreamErr.Vendor,
			"status", upstreamErr.StatusCode,
			"error", err,
			"path", r.URL.Path)
		if upstreamErr.Timeout() {
			h.RespondWithError(w, http.StatusGatewayTimeout, "Timed out contacting "+upstreamErr.Vendor)
			return
		}
		h.RespondWithError(w, http.StatusBadGateway, "Error contacting "+upstreamErr.Vendor)
	default:
		logging.Error("Request failed", "error", err, "path", r.URL.Path)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func (h *HTTPHandlerImpl) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		h.RespondWithError(w, http.StatusBadRequest, "Request body is required")
	default:
		logging.Warn("Invalid JSON body", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
	}
	return false
}

// Root answers the liveness check
func (h *HTTPHandlerImpl) Root(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Backend is running",
	})
}

// HealthCheck reports vendor reachability from the latest probes
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Health checker not configured")
		return
	}

	status, data, httpStatus := h.health.HealthCheck()
	h.RespondWithJSON(w, httpStatus, map[string]any{
		"status": status,
		"data":   data,
	})
}

type drugInfoRequest struct {
	MedicationName string `json:"medication_name"`
}

// DrugInfo returns plain-language label sections for a medication
func (h *HTTPHandlerImpl) DrugInfo(w http.ResponseWriter, r *http.Request) {
	var req drugInfoRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	name, err := h.validator.ValidateName("medication_name", req.MedicationName)
	if err != nil {
		logging.Warn("Unusual user input", "medication_name", req.MedicationName, "error", err)
		h.respondWithFailure(w, r, err, "")
		return
	}

	sections, err := h.drugInfo.Lookup(r.Context(), name)
	if err != nil {
		h.respondWithFailure(w, r, err, "No information found for this medication.")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, sections)
}

// PersonalizedReminder phrases a reminder message. It answers 200 for any
// valid input; generation failures fall back to a local message.
func (h *HTTPHandlerImpl) PersonalizedReminder(w http.ResponseWriter, r *http.Request) {
	var req entities.ReminderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var err error
	if req.UserName, err = h.validator.ValidateName("user_name", req.UserName); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}
	if req.MedicationName, err = h.validator.ValidateName("medication_name", req.MedicationName); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}
	if req.Purpose, err = h.validator.ValidateText("purpose", req.Purpose, validation.MaxNameLength); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}
	if req.Adherence.CurrentStreak < 0 || req.Adherence.MissedInLastWeek < 0 {
		h.RespondWithError(w, http.StatusBadRequest, "adherence: counts cannot be negative")
		return
	}

	result := h.reminders.Compose(r.Context(), req)
	h.RespondWithJSON(w, http.StatusOK, result)
}

// ReminderAudio streams a spoken reminder as audio/mpeg
func (h *HTTPHandlerImpl) ReminderAudio(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Text-to-speech is not configured on the server.")
		return
	}

	var req entities.AudioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validateAudio(&req); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = h.speech.DefaultVoiceID()
	}

	audio, err := h.speech.Stream(r.Context(), voiceID, speech.BuildScript(req))
	if err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}
	defer func() {
		if cerr := audio.Close(); cerr != nil {
			logging.Debug("Failed to close audio stream", "error", cerr)
		}
	}()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(audioWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.Debug("Could not extend write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	written, err := streamAudio(w, rc, audio)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("Audio stream interrupted", "bytes", written, "voice_id", voiceID, "error", err)
		return
	}
	logging.Debug("Audio streamed", "bytes", written, "voice_id", voiceID)
}

func (h *HTTPHandlerImpl) validateAudio(req *entities.AudioRequest) error {
	var err error
	if req.UserName, err = h.validator.ValidateName("user_name", req.UserName); err != nil {
		return err
	}
	if req.MedicationName, err = h.validator.ValidateName("medication_name", req.MedicationName); err != nil {
		return err
	}
	if req.Dose, err = h.validator.ValidateText("dose", req.Dose, maxDoseLength); err != nil {
		return err
	}
	if req.Instructions, err = h.validator.ValidateText("instructions", req.Instructions, validation.MaxMessageLength); err != nil {
		return err
	}
	if req.PersonalizedMessage, err = h.validator.ValidateText("personalized_message", req.PersonalizedMessage, validation.MaxMessageLength); err != nil {
		return err
	}
	req.VoiceID, err = h.validator.ValidateVoiceID(req.VoiceID)
	return err
}

// streamAudio copies src to w, flushing after each chunk so playback can
// start before the clip is complete
func streamAudio(w io.Writer, rc *http.ResponseController, src io.Reader) (int64, error) {
	buf := make([]byte, audioChunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			m, err := w.Write(buf[:n])
			written += int64(m)
			if err != nil {
				return written, err
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// CaregiverAlert queues an email to the caregiver and answers 202 at once.
// Delivery failures are logged by the dispatcher, never reported here.
func (h *HTTPHandlerImpl) CaregiverAlert(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Email delivery is not configured on the server.")
		return
	}

	var alert entities.CaregiverAlert
	if !h.decodeJSON(w, r, &alert) {
		return
	}
	if err := h.validateAlert(&alert); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}

	if err := h.alerts.Dispatch(alert); err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}

	h.RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *HTTPHandlerImpl) validateAlert(alert *entities.CaregiverAlert) error {
	var err error
	if alert.CaregiverEmail, err = h.validator.ValidateEmail(alert.CaregiverEmail); err != nil {
		return err
	}
	if alert.CaregiverName != "" {
		if alert.CaregiverName, err = h.validator.ValidateName("caregiver_name", alert.CaregiverName); err != nil {
			return err
		}
	}
	if alert.PatientName, err = h.validator.ValidateName("patient_name", alert.PatientName); err != nil {
		return err
	}
	if alert.MedicationName, err = h.validator.ValidateName("medication_name", alert.MedicationName); err != nil {
		return err
	}
	if alert.ScheduledTime, err = h.validator.ValidateText("scheduled_time", alert.ScheduledTime, maxScheduledTimeLength); err != nil {
		return err
	}
	if alert.ScheduledTime == "" {
		return &validation.FieldError{Field: "scheduled_time", Reason: "cannot be empty"}
	}
	if alert.Status, err = h.validator.ValidateDoseStatus(alert.Status); err != nil {
		return err
	}
	alert.Reason, err = h.validator.ValidateText("reason", alert.Reason, validation.MaxMessageLength)
	return err
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat forwards a single question to the language model
func (h *HTTPHandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	message, err := h.validator.ValidateMessage(req.Message)
	if err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}

	reply, err := h.chat.Chat(r.Context(),
		[]entities.ChatMessage{{Role: entities.RoleUser, Content: message}},
		entities.ChatOptions{Model: h.chatModel, Temperature: ChatTemperature})
	if err != nil {
		h.respondWithFailure(w, r, err, "")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
