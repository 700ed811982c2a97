package service

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketOptions lists the values ticket forms may offer.
type TicketOptions struct {
	Categories []string              `json:"categories" yaml:"categories"`
	Impacts    []domain.TicketImpact `json:"impacts" yaml:"impacts"`
	Statuses   []domain.TicketStatus `json:"statuses" yaml:"-"`
}

// DefaultTicketOptions is used when no catalog file is configured.
func DefaultTicketOptions() TicketOptions {
	return TicketOptions{
		Categories: []string{"hardware", "software", "network", "account", "other"},
		Impacts:    slices.Clone(domain.TicketImpacts),
		Statuses:   slices.Clone(domain.TicketStatuses),
	}
}

// OptionsService serves the ticket option catalog.
type OptionsService struct {
	options TicketOptions
}

// NewOptionsService builds the service from a YAML catalog. An empty
// path yields the defaults; sections missing from the file keep theirs.
func NewOptionsService(path string) (*OptionsService, error) {
	opts := DefaultTicketOptions()
	if strings.TrimSpace(path) == "" {
		return &OptionsService{options: opts}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticket options: %w", err)
	}
	parsed, err := ParseTicketOptions(raw)
	if err != nil {
		return nil, err
	}
	return &OptionsService{options: parsed}, nil
}

// ParseTicketOptions decodes a YAML catalog on top of the defaults.
func ParseTicketOptions(raw []byte) (TicketOptions, error) {
	var file TicketOptions
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return TicketOptions{}, fmt.Errorf("parse ticket options: %w", err)
	}
	opts := DefaultTicketOptions()
	if len(file.Categories) > 0 {
		opts.Categories = normalizeCategories(file.Categories)
	}
	if len(file.Impacts) > 0 {
		for _, impact := range file.Impacts {
			if !impact.Valid() {
				return TicketOptions{}, fmt.Errorf("parse ticket options: unknown impact %q", impact)
			}
		}
		opts.Impacts = file.Impacts
	}
	return opts, nil
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Options returns a copy of the catalog.
func (s *OptionsService) Options() TicketOptions {
	return TicketOptions{
		Categories: slices.Clone(s.options.Categories),
		Impacts:    slices.Clone(s.options.Impacts),
		Statuses:   slices.Clone(s.options.Statuses),
	}
}

// HasCategory reports whether category is offered.
func (s *OptionsService) HasCategory(category string) bool {
	return slices.Contains(s.options.Categories, category)
}

// HasImpact reports whether impact is offered.
func (s *OptionsService) HasImpact(impact domain.TicketImpact) bool {
	return slices.Contains(s.options.Impacts, impact)
}
