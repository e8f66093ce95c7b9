package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for bundle files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported bundle format")

// Format is the encoding of a bundle file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the bundle format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Bundle groups the upstream analyses for one story. Every field may be nil;
// synthesis degrades with warnings for missing inputs.
type Bundle struct {
	Seed      *StoryStructure  `json:"seed,omitempty" yaml:"seed,omitempty"`
	Gaps      *HygieneResult   `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	Attacks   *AttackAnalysis  `json:"attacks,omitempty" yaml:"attacks,omitempty"`
	Readiness *ReadinessResult `json:"readiness,omitempty" yaml:"readiness,omitempty"`
	Baseline  *BaselineReality `json:"baseline,omitempty" yaml:"baseline,omitempty"`
}

// LoadBundle reads and validates a bundle file.
func LoadBundle(path string) (*Bundle, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle file: %w", err)
	}
	b, err := ParseBundle(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBundle decodes and validates a bundle.
func ParseBundle(data []byte, format Format) (*Bundle, error) {
	var b Bundle
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse bundle: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to parse bundle: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle: %w", err)
	}
	return &b, nil
}

// Validate checks the enum and range constraints of every present analysis.
// All problems are reported together.
func (b *Bundle) Validate() error {
	var errs []error
	if s := b.Seed; s != nil {
		if s.StoryID == "" {
			errs = append(errs, errors.New("seed.story_id is required"))
		}
		if s.EstimatedComplexity != "" && !s.EstimatedComplexity.IsValid() {
			errs = append(errs, fmt.Errorf("seed.estimated_complexity %q is invalid", s.EstimatedComplexity))
		}
		for i, ac := range s.AcceptanceCriteria {
			if ac.ID == "" {
				errs = append(errs, fmt.Errorf("seed.acceptance_criteria[%d].id is required", i))
			}
		}
	}
	if g := b.Gaps; g != nil {
		for i, gap := range g.RankedGaps {
			if !gap.Category.IsValid() {
				errs = append(errs, fmt.Errorf("gaps.ranked_gaps[%d].category %q is invalid", i, gap.Category))
			}
			if !gap.Source.IsValid() {
				errs = append(errs, fmt.Errorf("gaps.ranked_gaps[%d].source %q is invalid", i, gap.Source))
			}
			if gap.Score < 1 || gap.Score > 25 {
				errs = append(errs, fmt.Errorf("gaps.ranked_gaps[%d].score must be between 1 and 25", i))
			}
		}
	}
	if a := b.Attacks; a != nil {
		for i, cr := range a.ChallengeResults {
			if !cr.Validity.IsValid() {
				errs = append(errs, fmt.Errorf("attacks.challenge_results[%d].validity %q is invalid", i, cr.Validity))
			}
		}
		for i, ec := range a.EdgeCases {
			if !ec.Category.IsValid() {
				errs = append(errs, fmt.Errorf("attacks.edge_cases[%d].category %q is invalid", i, ec.Category))
			}
			if ec.RiskScore < 1 || ec.RiskScore > 25 {
				errs = append(errs, fmt.Errorf("attacks.edge_cases[%d].risk_score must be between 1 and 25", i))
			}
		}
	}
	if r := b.Readiness; r != nil {
		if r.Score < 0 || r.Score > 100 {
			errs = append(errs, errors.New("readiness.score must be between 0 and 100"))
		}
		if r.Threshold < 0 || r.Threshold > 100 {
			errs = append(errs, errors.New("readiness.threshold must be between 0 and 100"))
		}
	}
	return errors.Join(errs...)
}
