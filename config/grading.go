package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// gradingPolicyFile mirrors the YAML layout of the grading policy file:
//
//	weights:
//	  quizzes: 0.25
//	  midterm: 0.30
//	  final: 0.35
//	  attendance: 0.10
//	grade_scale:
//	  A: 90
//	  B: 80
//	  C: 70
//	  D: 60
//	  F: 0
//	at_risk_threshold: 60
type gradingPolicyFile struct {
	Weights         gradebook.Weights  `yaml:"weights"`
	GradeScale      map[string]float64 `yaml:"grade_scale"`
	AtRiskThreshold *float64           `yaml:"at_risk_threshold"`
}

// LoadGradingPolicy reads the grading policy from the given YAML file.
// An empty path returns the built-in default policy.
func LoadGradingPolicy(path string) (gradebook.Policy, error) {
	if path == "" {
		return gradebook.DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gradebook.Policy{}, fmt.Errorf("grading policy: read %s: %w", path, err)
	}
	return ParseGradingPolicy(data)
}

// ParseGradingPolicy parses YAML grading policy contents. Omitted sections
// fall back to the default policy so a partial file stays usable.
func ParseGradingPolicy(data []byte) (gradebook.Policy, error) {
	var file gradingPolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return gradebook.Policy{}, fmt.Errorf("grading policy: parse: %w", err)
	}

	policy := gradebook.DefaultPolicy()

	if file.Weights != (gradebook.Weights{}) {
		policy.Weights = file.Weights
	}
	if len(file.GradeScale) > 0 {
		scale := make(gradebook.GradeScale, len(file.GradeScale))
		for letter, min := range file.GradeScale {
			scale[gradebook.Letter(letter)] = min
		}
		policy.Scale = scale
	}
	if file.AtRiskThreshold != nil {
		policy.AtRiskThreshold = *file.AtRiskThreshold
	}

	if err := policy.Validate(); err != nil {
		return gradebook.Policy{}, fmt.Errorf("grading policy: %w", err)
	}
	return policy, nil
}
