// Package evaluation scores a finished interview transcript against the rubric.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/analysis/llmjson"
	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	evalmodel "github.com/zhouzirui/interview-sim/backend/internal/model/evaluation"
	"github.com/zhouzirui/interview-sim/backend/internal/model/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
)

// Messages attached to degraded results.
const (
	MessageInvalidJSON   = "The model response was not in valid JSON format."
	MessageInvalidFormat = "The model response did not match the scorecard format."
)

// SessionReader gives the evaluator read access to interview sessions.
type SessionReader interface {
	Get(key string) (interview.Session, error)
}

// Service evaluates transcripts with a chat model.
type Service struct {
	sessions SessionReader
	rubric   evalmodel.Rubric
	chain    ai.Runnable
	log      *zap.Logger
}

// NewService compiles the evaluation chain for rubric.
func NewService(ctx context.Context, sessions SessionReader, rubric evalmodel.Rubric, chatModel model.BaseChatModel, log *zap.Logger) (*Service, error) {
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	chain, err := ai.CompileChain(ctx, chatTemplate(), chatModel)
	if err != nil {
		return nil, err
	}
	return &Service{
		sessions: sessions,
		rubric:   rubric,
		chain:    chain,
		log:      logger.Named(log, "evaluation"),
	}, nil
}

// Rubric returns the rubric transcripts are scored against.
func (s *Service) Rubric() evalmodel.Rubric {
	return s.rubric
}

// Evaluate scores the transcript of the session registered under key. A model
// reply that cannot be turned into a scorecard yields a degraded Result, not an error.
func (s *Service) Evaluate(ctx context.Context, key string) (evalmodel.Result, error) {
	session, err := s.sessions.Get(key)
	if err != nil {
		return evalmodel.Result{}, err
	}
	return s.EvaluateEntries(ctx, key, session.Transcript.Entries())
}

// EvaluateEntries scores an already reconstructed transcript.
func (s *Service) EvaluateEntries(ctx context.Context, conversationID string, entries []interview.Entry) (evalmodel.Result, error) {
	msg, err := s.chain.Invoke(ctx, map[string]any{
		"criteria":   s.rubric.Criteria,
		"total":      s.rubric.Total(),
		"transcript": conversationText(entries),
	})
	if err != nil {
		return evalmodel.Result{}, apperr.Wrap(apperr.ErrInference, "evaluate", err)
	}

	raw := msg.Content
	log := s.log.With(logger.Session(conversationID))

	card, err := s.parse(raw)
	if err != nil {
		log.Warn("scorecard parse failed",
			zap.Error(err),
			zap.String("raw", logger.TruncateForLog(raw, 200)),
		)
		return degraded(conversationID, raw, err), nil
	}

	log.Info("interview evaluated",
		zap.Int("entries", len(entries)),
		zap.String("overall", card.OverallScore),
	)
	return evalmodel.Result{ConversationID: conversationID, Analysis: card}, nil
}

// parse turns a model reply into a scorecard scored against the rubric.
func (s *Service) parse(raw string) (*evalmodel.Scorecard, error) {
	var doc any
	if err := llmjson.Decode(raw, &doc); err != nil {
		return nil, err
	}
	if err := scorecardSchema.Validate(doc); err != nil {
		return nil, &formatError{msg: "Schema Validation Error: " + schemaErrors(err)}
	}

	var card evalmodel.Scorecard
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &card,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, &formatError{msg: "Decode Error: " + err.Error()}
	}

	if err := s.score(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// score keeps the first evaluation per rubric criterion, in rubric order,
// normalises each score to "<points>/<top>" and recomputes the overall score.
// Entries for unknown parameters and repeated criteria are dropped.
func (s *Service) score(card *evalmodel.Scorecard) error {
	byParameter := make(map[string]evalmodel.Evaluation, len(s.rubric.Criteria))
	for _, ev := range card.Evaluations {
		criterion, ok := s.rubric.Find(ev.Parameter)
		if !ok {
			continue
		}
		if _, dup := byParameter[criterion.Parameter]; !dup {
			byParameter[criterion.Parameter] = ev
		}
	}

	var missing []string
	for _, c := range s.rubric.Criteria {
		if _, ok := byParameter[c.Parameter]; !ok {
			missing = append(missing, c.Parameter)
		}
	}
	if len(missing) > 0 {
		return &formatError{msg: "Scoring Error: missing evaluations for " + strings.Join(missing, ", ")}
	}

	kept := make([]evalmodel.Evaluation, 0, len(s.rubric.Criteria))
	points := 0.0
	for _, criterion := range s.rubric.Criteria {
		ev := byParameter[criterion.Parameter]
		ev.Parameter = criterion.Parameter

		got, ok := awarded(criterion, ev)
		if !ok {
			return &formatError{msg: fmt.Sprintf("Scoring Error: no usable result for %q", criterion.Parameter)}
		}
		if criterion.MarkingType == evalmodel.MarkingPassFail {
			ev.Result = "Fail"
			if got > 0 {
				ev.Result = "Pass"
			}
		}
		ev.Score = formatPoints(got) + "/" + strconv.Itoa(criterion.TopScore)
		points += got
		kept = append(kept, ev)
	}

	card.Evaluations = kept
	card.OverallScore = formatPoints(points) + "/" + strconv.Itoa(s.rubric.Total())
	return nil
}

// awarded resolves the points an evaluation earns under criterion.
// Pass earns full marks and Fail earns none.
func awarded(criterion evalmodel.Criterion, ev evalmodel.Evaluation) (float64, bool) {
	if criterion.MarkingType == evalmodel.MarkingPassFail {
		for _, v := range []string{ev.Result, ev.Score} {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "pass", "passed", "true":
				return float64(criterion.TopScore), true
			case "fail", "failed", "false":
				return 0, true
			}
		}
		// fall back to a numeric score: anything above zero counts as a pass
		if p, ok := leadingNumber(ev.Score); ok {
			if p > 0 {
				return float64(criterion.TopScore), true
			}
			return 0, true
		}
		return 0, false
	}

	for _, v := range []string{ev.Result, ev.Score} {
		if p, ok := leadingNumber(v); ok {
			return clamp(p, 0, float64(criterion.TopScore)), true
		}
	}
	return 0, false
}

// leadingNumber parses "85", "85/100" or "85 points".
func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if f := strings.Fields(s); len(f) > 0 {
		s = f[0]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type formatError struct {
	msg string
}

func (e *formatError) Error() string { return e.msg }

func degraded(conversationID, raw string, err error) evalmodel.Result {
	message := MessageInvalidFormat
	var pe *llmjson.ParseError
	if errors.As(err, &pe) {
		message = MessageInvalidJSON
	}
	return evalmodel.Result{
		ConversationID: conversationID,
		Error:          err.Error(),
		RawResponse:    raw,
		Message:        message,
	}
}
