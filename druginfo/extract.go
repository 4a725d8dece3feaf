package druginfo

import (
	"encoding/json"
	"strings"

	"github.com/giygas/medcompanion-api/entities"
)

// Candidate label keys per field, in precedence order.
var (
	indicationsFields = []string{"indications_and_usage"}
	warningsFields    = []string{"warnings", "warnings_and_cautions", "boxed_warning"}
	dosageFields      = []string{"dosage_and_administration"}
	adverseFields     = []string{"adverse_reactions", "side_effects"}
)

// ExtractRecord pulls the four summarized fields out of one raw label result.
func ExtractRecord(raw entities.RawLabel) entities.LabelRecord {
	return entities.LabelRecord{
		IndicationsAndUsage:     firstPresent(raw, indicationsFields),
		Warnings:                firstPresent(raw, warningsFields),
		DosageAndAdministration: firstPresent(raw, dosageFields),
		AdverseReactions:        firstPresent(raw, adverseFields),
	}
}

// firstPresent returns the text of the first key that yields non-blank text.
func firstPresent(raw entities.RawLabel, keys []string) string {
	for _, key := range keys {
		if text := firstText(raw[key]); text != "" {
			return text
		}
	}
	return ""
}

// firstText accepts a JSON string or a list whose first element is a string.
// Anything else, including a blank string, yields "".
func firstText(value json.RawMessage) string {
	if len(value) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(value, &list); err != nil || len(list) == 0 {
		return ""
	}
	if err := json.Unmarshal(list[0], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
