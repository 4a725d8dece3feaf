package druginfo

import (
	"strings"

	"github.com/giygas/medcompanion-api/entities"
)

const (
	generalDisclaimer = "_Source: U.S. FDA drug label (OpenFDA). This is **not** medical advice. " +
		"Always talk to your doctor or pharmacist about your medicines._"
	usageDisclaimer = "_This is a simplified summary. Follow the instructions from your doctor, " +
		"pharmacist, or the label on your medicine._"
	sideEffectsDisclaimer = "_If you feel unwell, have trouble breathing, chest pain, or any symptoms " +
		"that worry you, seek medical help immediately. This list is not complete._"
)

// ComposeSections renders the three markdown blocks for one label record.
// The general block always lists what the medicine is for before warnings.
func ComposeSections(name string, record entities.LabelRecord, sourceURL string) *entities.SummarySections {
	return &entities.SummarySections{
		MedicationName: name,
		General: block(
			"### What this medicine is for", summarize(record.IndicationsAndUsage),
			"### Important warnings", summarize(record.Warnings),
			generalDisclaimer,
		),
		Usage: block(
			"### How to use this medicine", summarize(record.DosageAndAdministration),
			usageDisclaimer,
		),
		SideEffects: block(
			"### Possible side effects", summarize(record.AdverseReactions),
			sideEffectsDisclaimer,
		),
		SourceURL: sourceURL,
	}
}

func block(parts ...string) string {
	return strings.Join(parts, "\n\n")
}
