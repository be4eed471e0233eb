package evaluation

// Evaluation is the verdict for one rubric criterion.
type Evaluation struct {
	Parameter string   `json:"parameter" mapstructure:"parameter"`
	Result    string   `json:"result" mapstructure:"result"`
	Score     string   `json:"score" mapstructure:"score"`
	Evidence  []string `json:"evidence" mapstructure:"evidence"`
}

// Scorecard is the structured evaluation of a finished interview.
type Scorecard struct {
	Evaluations     []Evaluation `json:"evaluations" mapstructure:"evaluations"`
	OverallScore    string       `json:"Overall_score" mapstructure:"Overall_score"`
	OverallGrammar  string       `json:"Overall_grammar" mapstructure:"Overall_grammar"`
	OverallAccent   string       `json:"Overall_accent" mapstructure:"Overall_accent"`
	OverallAnalysis string       `json:"Overall_analysis" mapstructure:"Overall_analysis"`
}

// Result wraps a scorecard, or describes why the model reply could not be
// turned into one. A degraded Result carries Error and RawResponse instead of Analysis.
type Result struct {
	ConversationID string     `json:"conversation_id,omitempty"`
	Analysis       *Scorecard `json:"analysis,omitempty"`

	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Degraded reports whether the result holds raw model output rather than a scorecard.
func (r Result) Degraded() bool {
	return r.Analysis == nil
}
