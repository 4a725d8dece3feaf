package entities

import "encoding/json"

// RawLabel is one result object of a label search, kept as raw JSON per field.
// Upstream fields are usually single-element string arrays but may be plain
// strings, empty arrays or missing entirely.
type RawLabel map[string]json.RawMessage

// LabelRecord is the subset of a label document the summarizer cares about.
// Every field is optional; an empty string means "not available".
type LabelRecord struct {
	IndicationsAndUsage     string
	Warnings                string
	DosageAndAdministration string
	AdverseReactions        string
}

// SummarySections holds the three presentation blocks returned to callers.
type SummarySections struct {
	MedicationName string `json:"medication_name"`
	General        string `json:"general_markdown"`
	Usage          string `json:"usage_markdown"`
	SideEffects    string `json:"side_effects_markdown"`
	SourceURL      string `json:"source_url"`
}
