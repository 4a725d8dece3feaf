// Package interfaces defines core abstractions for the medication companion API
// so vendor clients, handlers and background jobs can be swapped for fakes in tests.
package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/giygas/medcompanion-api/entities"
)

// LabelSource queries the public drug-label service.
type LabelSource interface {
	// SearchLabel returns the first label matching name by brand or generic name.
	// It returns entities.ErrNotFound when there is no match and an
	// *entities.UpstreamError on transport or status failures.
	SearchLabel(ctx context.Context, name string) (entities.RawLabel, error)

	// SearchURL returns the exact query URL used for name.
	SearchURL(name string) string
}

// DrugInfoService turns a medication name into presentation sections.
type DrugInfoService interface {
	Lookup(ctx context.Context, name string) (*entities.SummarySections, error)
}

// TextGenerator is a chat-completion style language model.
type TextGenerator interface {
	Chat(ctx context.Context, messages []entities.ChatMessage, opts entities.ChatOptions) (string, error)
}

// ReminderComposer phrases reminder messages. It never fails; a local
// fallback is returned when generation is unusable.
type ReminderComposer interface {
	Compose(ctx context.Context, req entities.ReminderRequest) entities.ReminderResult
}

// SpeechSynthesizer streams spoken audio for a script.
type SpeechSynthesizer interface {
	Stream(ctx context.Context, voiceID, script string) (io.ReadCloser, error)
	DefaultVoiceID() string
}

// EmailSender delivers a rendered email through a provider.
type EmailSender interface {
	Send(ctx context.Context, msg entities.EmailMessage) error
	Provider() string
}

// AlertDispatcher queues caregiver alerts for background delivery.
type AlertDispatcher interface {
	Dispatch(alert entities.CaregiverAlert) error
	Close(ctx context.Context) error
}

// Prober is a vendor that can be checked for reachability.
type Prober interface {
	Name() string
	Ping(ctx context.Context) error
}

// StatusStore keeps the latest probe results for health reporting.
type StatusStore interface {
	RecordProbes(results []entities.ProbeResult)
	GetProbes() map[string]entities.ProbeResult
	GetLastProbeRun() time.Time
	GetServerStartTime() time.Time
	BeginProbe() bool
	EndProbe()
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status label, response details and HTTP status.
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// InputValidator validates and normalises request fields.
type InputValidator interface {
	// ValidateName checks a medication or person name and returns it trimmed
	// and normalised.
	ValidateName(field, value string) (string, error)

	// ValidateText checks an optional free-text field. Empty input is allowed.
	ValidateText(field, value string, maxLen int) (string, error)

	ValidateEmail(value string) (string, error)
	ValidateDoseStatus(value string) (string, error)
	ValidateVoiceID(value string) (string, error)
	ValidateMessage(value string) (string, error)
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	DrugInfo(w http.ResponseWriter, r *http.Request)
	PersonalizedReminder(w http.ResponseWriter, r *http.Request)
	ReminderAudio(w http.ResponseWriter, r *http.Request)
	CaregiverAlert(w http.ResponseWriter, r *http.Request)
	Chat(w http.ResponseWriter, r *http.Request)
}
