package evaluation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkingType says how a criterion is scored.
type MarkingType string

const (
	MarkingNumeric  MarkingType = "Numeric"
	MarkingPassFail MarkingType = "Pass/Fail"
)

//go:embed rubric.yaml
var defaultRubricYAML []byte

// Criterion is one scored dimension of the rubric.
type Criterion struct {
	Parameter    string      `yaml:"parameter" json:"parameter"`
	TopScore     int         `yaml:"top_score" json:"top_score"`
	MarkingType  MarkingType `yaml:"marking_type" json:"marking_type"`
	ScoringGuide string      `yaml:"scoring_guide" json:"scoring_guide"`
	Detail       string      `yaml:"detail" json:"detail,omitempty"`
}

// Rubric is the fixed set of criteria every transcript is scored against.
type Rubric struct {
	Name           string      `yaml:"name" json:"name"`
	CreatedCompany string      `yaml:"created_company" json:"created_company"`
	Criteria       []Criterion `yaml:"criteria" json:"criteria"`
}

// Total is the sum of every criterion's top score.
func (r Rubric) Total() int {
	total := 0
	for _, c := range r.Criteria {
		total += c.TopScore
	}
	return total
}

// Find looks up a criterion by parameter name, ignoring case and surrounding space.
func (r Rubric) Find(parameter string) (Criterion, bool) {
	parameter = strings.TrimSpace(parameter)
	for _, c := range r.Criteria {
		if strings.EqualFold(c.Parameter, parameter) {
			return c, true
		}
	}
	return Criterion{}, false
}

// Validate checks the rubric is usable for scoring.
func (r Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return errors.New("rubric has no criteria")
	}
	seen := make(map[string]struct{}, len(r.Criteria))
	for i, c := range r.Criteria {
		name := strings.ToLower(strings.TrimSpace(c.Parameter))
		if name == "" {
			return fmt.Errorf("criterion %d: parameter is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("criterion %q listed twice", c.Parameter)
		}
		seen[name] = struct{}{}
		if c.TopScore <= 0 {
			return fmt.Errorf("criterion %q: top_score must be positive", c.Parameter)
		}
		switch c.MarkingType {
		case MarkingNumeric, MarkingPassFail:
		default:
			return fmt.Errorf("criterion %q: unknown marking_type %q", c.Parameter, c.MarkingType)
		}
	}
	return nil
}

// DefaultRubric returns the built-in four-criterion rubric.
func DefaultRubric() Rubric {
	r, err := ParseRubric(defaultRubricYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rubric is invalid: %v", err))
	}
	return r
}

// LoadRubric reads a rubric from path, or returns the default when path is empty.
func LoadRubric(path string) (Rubric, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRubric(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("read rubric %s: %w", path, err)
	}
	r, err := ParseRubric(data)
	if err != nil {
		return Rubric{}, fmt.Errorf("rubric %s: %w", path, err)
	}
	return r, nil
}

// ParseRubric decodes and validates a YAML rubric.
func ParseRubric(data []byte) (Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("decode rubric: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rubric{}, err
	}
	return r, nil
}
