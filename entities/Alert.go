package entities

// Dose statuses that trigger a caregiver alert.
const (
	DoseStatusMissed  = "missed"
	DoseStatusSkipped = "skipped"
)

type CaregiverAlert struct {
	CaregiverEmail string `json:"caregiver_email"`
	CaregiverName  string `json:"caregiver_name,omitempty"`
	PatientName    string `json:"patient_name"`
	MedicationName string `json:"medication_name"`
	ScheduledTime  string `json:"scheduled_time"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
}

// EmailMessage is a rendered, provider-neutral email.
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}
