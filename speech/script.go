package speech

import (
	"strings"

	"github.com/giygas/medcompanion-api/entities"
)

// BuildScript returns the text to speak. A personalized message is read as
// is with the dose appended; otherwise a short default reminder is built
// from the names, dose and instructions.
func BuildScript(req entities.AudioRequest) string {
	var b strings.Builder

	dose := strings.TrimSpace(req.Dose)
	if msg := strings.TrimSpace(req.PersonalizedMessage); msg != "" {
		b.WriteString(msg)
		if dose != "" {
			b.WriteString(" Please take " + dose + ".")
		}
		return b.String()
	}

	b.WriteString("Hey " + strings.TrimSpace(req.UserName) + ", it's time to take your " + strings.TrimSpace(req.MedicationName) + ".")
	if dose != "" {
		b.WriteString(" Please take " + dose + ".")
	}
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		b.WriteString(" " + instructions)
	}
	return b.String()
}
