// Package validation checks and normalises the fields of incoming requests.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"golang.org/x/text/unicode/norm"
)

// Field limits
const (
	MaxNameLength    = 200
	MaxMessageLength = 4000
	MaxEmailLength   = 254
	MaxVoiceIDLength = 64
	maxRepeatedRunes = 10
)

// Pre-compiled patterns, compiled once at package initialization
var (
	// letters and marks of any script, digits, spaces and the punctuation
	// found in drug and person names. Double quotes stay out; they end an
	// openFDA search term.
	nameRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+'/(),%&#:?]+$`)

	voiceIDRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

	// substring checks are cheaper than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "${", "$(", "`",
		"../", "..\\", "%2e%2e", "file://",
	}
)

// FieldError describes one invalid request field. It matches
// entities.ErrInvalidInput with errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return entities.ErrInvalidInput
}

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// InputValidatorImpl implements interfaces.InputValidator
type InputValidatorImpl struct{}

var _ interfaces.InputValidator = (*InputValidatorImpl)(nil)

func NewInputValidator() *InputValidatorImpl {
	return &InputValidatorImpl{}
}

// clean NFC-normalises and trims s
func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ValidateName checks a medication or person name
func (v *InputValidatorImpl) ValidateName(field, value string) (string, error) {
	if !utf8.ValidString(value) {
		return "", invalid(field, "must be valid UTF-8")
	}

	value = clean(value)
	if value == "" {
		return "", invalid(field, "cannot be empty")
	}

	if utf8.RuneCountInString(value) > MaxNameLength {
		return "", invalid(field, "is too long")
	}

	if err := checkDangerous(field, value); err != nil {
		return "", err
	}

	if !nameRegex.MatchString(value) {
		return "", invalid(field, "contains invalid characters; only letters, numbers, spaces and - . + ' / ( ) , % & # : ? are allowed")
	}

	if !strings.ContainsFunc(value, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return "", invalid(field, "must contain a letter or digit")
	}

	if hasExcessiveRepetition(value) {
		return "", invalid(field, "contains excessive character repetition")
	}

	return value, nil
}

// ValidateText checks an optional free-text field; empty input is allowed
func (v *InputValidatorImpl) ValidateText(field, value string, maxLen int) (string, error) {
	if !utf8.ValidString(value) {
		return "", invalid(field, "must be valid UTF-8")
	}

	value = clean(value)
	if value == "" {
		return "", nil
	}

	if utf8.RuneCountInString(value) > maxLen {
		return "", invalid(field, "is too long")
	}

	if hasControl(value) {
		return "", invalid(field, "contains control characters")
	}

	if err := checkDangerous(field, value); err != nil {
		return "", err
	}

	return value, nil
}

// ValidateEmail accepts a single bare address and returns it
func (v *InputValidatorImpl) ValidateEmail(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("caregiver_email", "cannot be empty")
	}

	if len(value) > MaxEmailLength {
		return "", invalid("caregiver_email", "is too long")
	}

	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", invalid("caregiver_email", "must be a valid email address")
	}

	return addr.Address, nil
}

// ValidateDoseStatus accepts "missed" or "skipped" in any case
func (v *InputValidatorImpl) ValidateDoseStatus(value string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case entities.DoseStatusMissed, entities.DoseStatusSkipped:
		return status, nil
	}
	return "", invalid("status", "must be one of: missed, skipped")
}

// ValidateVoiceID accepts an empty ID (use the default) or an alphanumeric one
func (v *InputValidatorImpl) ValidateVoiceID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	if len(value) > MaxVoiceIDLength || !voiceIDRegex.MatchString(value) {
		return "", invalid("voice_id", "must be alphanumeric, at most 64 characters")
	}
	return value, nil
}

// ValidateMessage checks a chat message
func (v *InputValidatorImpl) ValidateMessage(value string) (string, error) {
	if !utf8.ValidString(value) {
		return "", invalid("message", "must be valid UTF-8")
	}

	value = clean(value)
	if value == "" {
		return "", invalid("message", "cannot be empty")
	}

	if utf8.RuneCountInString(value) > MaxMessageLength {
		return "", invalid("message", "is too long")
	}

	if hasControl(value) {
		return "", invalid("message", "contains control characters")
	}

	return value, nil
}

func checkDangerous(field, value string) error {
	lower := strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return invalid(field, "contains potentially dangerous content")
		}
	}
	return nil
}

// hasControl reports control characters other than newline and tab
func hasControl(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
	})
}

// hasExcessiveRepetition reports a rune repeated more than maxRepeatedRunes
// times in a row
func hasExcessiveRepetition(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run > maxRepeatedRunes {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}
