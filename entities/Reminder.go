package entities

type AdherenceStats struct {
	CurrentStreak    int `json:"current_streak"`
	MissedInLastWeek int `json:"missed_in_last_week"`
}

type ReminderRequest struct {
	UserName       string         `json:"user_name"`
	MedicationName string         `json:"medication_name"`
	Purpose        string         `json:"purpose,omitempty"`
	Adherence      AdherenceStats `json:"adherence"`
}

// Reminder message sources.
const (
	ReminderSourceGenerated = "generated"
	ReminderSourceFallback  = "fallback"
)

type ReminderResult struct {
	Message string `json:"message"`
	Source  string `json:"-"`
}

// AudioRequest describes a spoken reminder clip.
type AudioRequest struct {
	UserName            string `json:"user_name"`
	MedicationName      string `json:"medication_name"`
	Dose                string `json:"dose,omitempty"`
	Instructions        string `json:"instructions,omitempty"`
	VoiceID             string `json:"voice_id,omitempty"`
	PersonalizedMessage string `json:"personalized_message,omitempty"`
}
