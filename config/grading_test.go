package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

func TestParseGradingPolicy(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		data := []byte(`
weights:
  quizzes: 0.2
  midterm: 0.3
  final: 0.4
  attendance: 0.1
grade_scale:
  A: 85
  B: 70
  F: 0
at_risk_threshold: 55
`)
		policy, err := ParseGradingPolicy(data)
		require.NoError(t, err)
		assert.Equal(t, 0.2, policy.Weights.Quizzes)
		assert.Equal(t, 0.4, policy.Weights.Final)
		assert.Equal(t, 85.0, policy.Scale[gradebook.LetterA])
		assert.Len(t, policy.Scale, 3)
		assert.Equal(t, 55.0, policy.AtRiskThreshold)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		policy, err := ParseGradingPolicy([]byte("at_risk_threshold: 65\n"))
		require.NoError(t, err)
		assert.Equal(t, gradebook.DefaultPolicy().Weights, policy.Weights)
		assert.Equal(t, gradebook.DefaultGradeScale(), policy.Scale)
		assert.Equal(t, 65.0, policy.AtRiskThreshold)
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		data := []byte(`
weights:
  quizzes: -0.5
  midterm: 0.5
  final: 0.5
  attendance: 0.5
`)
		_, err := ParseGradingPolicy(data)
		assert.Error(t, err)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		_, err := ParseGradingPolicy([]byte("weights: ["))
		assert.Error(t, err)
	})
}

func TestLoadGradingPolicy_EmptyPathUsesDefaults(t *testing.T) {
	policy, err := LoadGradingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, gradebook.DefaultPolicy(), policy)
}
