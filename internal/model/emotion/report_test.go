package emotion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisMarshal(t *testing.T) {
	raw, err := json.Marshal(Analysis{Raw: "not json"})
	require.NoError(t, err)
	assert.JSONEq(t, `"not json"`, string(raw))

	structured, err := json.Marshal(Analysis{Report: &Report{
		Timestamps:      map[string]map[string]int{"0:00-0:10": {"smiling": 2}},
		OverallAnalysis: "calm",
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamps":{"0:00-0:10":{"smiling":2}},"interview_strengths":null,"areas_for_improvement":null,"overall_analysis":"calm"}`, string(structured))
}
