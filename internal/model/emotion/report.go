package emotion

import "encoding/json"

// Report is the structured emotion timeline of an interview recording.
// Timestamps maps an interval label such as "0:00-0:10" to behaviour counts.
type Report struct {
	Timestamps          map[string]map[string]int `json:"timestamps" mapstructure:"timestamps"`
	InterviewStrengths  []string                  `json:"interview_strengths" mapstructure:"interview_strengths"`
	AreasForImprovement []string                  `json:"areas_for_improvement" mapstructure:"areas_for_improvement"`
	OverallAnalysis     string                    `json:"overall_analysis" mapstructure:"overall_analysis"`
}

// Analysis holds either a parsed Report or, when the model reply was not
// valid JSON, the cleaned reply text.
type Analysis struct {
	Report *Report
	Raw    string
}

// Structured reports whether the analysis carries a parsed report.
func (a Analysis) Structured() bool {
	return a.Report != nil
}

// MarshalJSON renders the report object, or the raw text as a JSON string.
func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Report != nil {
		return json.Marshal(a.Report)
	}
	return json.Marshal(a.Raw)
}
