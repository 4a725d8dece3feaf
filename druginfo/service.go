// Package druginfo turns a medication name into plain-language label sections:
// one label lookup, field extraction with ordered fallbacks, truncation at a
// sentence boundary, bulleting and markdown composition.
package druginfo

import (
	"context"
	"fmt"
	"strings"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
)

// Service implements interfaces.DrugInfoService over a label source.
type Service struct {
	source interfaces.LabelSource
}

var _ interfaces.DrugInfoService = (*Service)(nil)

func NewService(source interfaces.LabelSource) *Service {
	return &Service{source: source}
}

// Lookup fails with entities.ErrInvalidInput for a blank name (no network
// call), entities.ErrNotFound when nothing matches, or the source's
// *entities.UpstreamError. Upstream failures are never retried here.
func (s *Service) Lookup(ctx context.Context, name string) (*entities.SummarySections, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("medication name is empty: %w", entities.ErrInvalidInput)
	}

	raw, err := s.source.SearchLabel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("label lookup for %q: %w", name, err)
	}

	record := ExtractRecord(raw)
	logging.Debug("Label record extracted",
		"medication", name,
		"has_indications", record.IndicationsAndUsage != "",
		"has_warnings", record.Warnings != "",
		"has_dosage", record.DosageAndAdministration != "",
		"has_adverse_reactions", record.AdverseReactions != "",
	)

	return ComposeSections(name, record, s.source.SearchURL(name)), nil
}
