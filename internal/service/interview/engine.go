package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	"github.com/zhouzirui/interview-sim/backend/internal/model/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/model/persona"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
)

var (
	// ErrEmptyUtterance is returned for blank input; callers drop it without replying.
	ErrEmptyUtterance = errors.New("empty utterance")
	// ErrSessionClosed is returned once the interview reached its last turn or was replaced.
	ErrSessionClosed = errors.New("interview session is closed")
)

// Speaker turns reply text into a playable audio URL.
type Speaker interface {
	Render(ctx context.Context, text string) (string, error)
}

// Reply is the interviewer's answer to one utterance.
type Reply struct {
	Text     string
	AudioURL string
	Finished bool
	Turn     int
}

// Greeting is the opening line of a fresh interview.
type Greeting struct {
	Text     string
	AudioURL string
}

// Engine drives exchanges for every session held in the store.
type Engine struct {
	store      *Store
	personas   persona.Store
	composer   *Composer
	inProgress ai.Runnable
	closing    ai.Runnable
	speaker    Speaker
	defaultID  string
	log        *zap.Logger
}

// Options configures an Engine.
type Options struct {
	MaxTurns         int
	DefaultPersonaID string
	// Speaker may be nil, in which case replies carry no audio.
	Speaker Speaker
	Log     *zap.Logger
}

// NewEngine compiles both prompt variants against chatModel.
func NewEngine(ctx context.Context, store *Store, personas persona.Store, chatModel model.BaseChatModel, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if personas == nil {
		return nil, fmt.Errorf("persona store is required")
	}

	inProgress, err := ai.CompileChain(ctx, InProgressTemplate(), chatModel)
	if err != nil {
		return nil, fmt.Errorf("in-progress chain: %w", err)
	}
	closing, err := ai.CompileChain(ctx, ClosingTemplate(), chatModel)
	if err != nil {
		return nil, fmt.Errorf("closing chain: %w", err)
	}

	defaultID := opts.DefaultPersonaID
	if defaultID == "" {
		defaultID = persona.DefaultID
	}

	return &Engine{
		store:      store,
		personas:   personas,
		composer:   NewComposer(opts.MaxTurns),
		inProgress: inProgress,
		closing:    closing,
		speaker:    opts.Speaker,
		defaultID:  defaultID,
		log:        logger.Named(opts.Log, "interview"),
	}, nil
}

// Store exposes the session store the engine works on.
func (e *Engine) Store() *Store {
	return e.store
}

// Greet renders the opening line of the selected persona.
func (e *Engine) Greet(ctx context.Context, personaID string) (Greeting, error) {
	p, ok := persona.Resolve(e.personas, personaID, e.defaultID)
	if !ok {
		return Greeting{}, apperr.New(apperr.KindNotFound, "greet", "no interviewer persona configured")
	}
	greeting := Greeting{Text: p.OpeningLine}
	if e.speaker == nil {
		return greeting, nil
	}
	url, err := e.speaker.Render(ctx, p.OpeningLine)
	if err != nil {
		return Greeting{}, err
	}
	greeting.AudioURL = url
	return greeting, nil
}

// Exchange processes one candidate utterance. Exchanges on the same session
// run one at a time; a failure leaves the transcript and turn count untouched.
func (e *Engine) Exchange(ctx context.Context, key, utterance string) (Reply, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Reply{}, ErrEmptyUtterance
	}

	rec, err := e.store.lookup(key)
	if err != nil {
		return Reply{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.retired.Load() || rec.session.Closed() {
		return Reply{}, ErrSessionClosed
	}

	p, _ := persona.Resolve(e.personas, rec.session.PersonaID, e.defaultID)
	turn := rec.session.Turns + 1
	variant, vars := e.composer.Compose(p, rec.session.DocumentText, rec.session.Transcript.Text(), utterance, turn)

	rec.session.State = interview.StateProcessing
	text, err := e.generate(ctx, variant, vars)
	if err != nil {
		rec.session.State = interview.StateAwaitingUtterance
		e.log.Warn("interviewer reply failed", logger.Session(key), zap.Int("turn", turn), zap.Error(err))
		return Reply{}, err
	}

	var audioURL string
	if e.speaker != nil {
		audioURL, err = e.speaker.Render(ctx, text)
		if err != nil {
			rec.session.State = interview.StateAwaitingUtterance
			e.log.Warn("reply speech failed", logger.Session(key), zap.Int("turn", turn), zap.Error(err))
			return Reply{}, err
		}
	}

	if rec.retired.Load() {
		return Reply{}, ErrSessionClosed
	}

	rec.session.Transcript.Append(utterance, text)
	rec.session.Turns = turn
	finished := variant == VariantClosing
	if finished {
		rec.session.State = interview.StateClosed
	} else {
		rec.session.State = interview.StateAwaitingUtterance
	}

	e.log.Info("interview turn completed",
		logger.Session(key),
		zap.Int("turn", turn),
		zap.String("variant", variant.String()),
		zap.Int("reply_len", len(text)),
		zap.Bool("finished", finished),
	)

	return Reply{Text: text, AudioURL: audioURL, Finished: finished, Turn: turn}, nil
}

func (e *Engine) generate(ctx context.Context, variant Variant, vars map[string]any) (string, error) {
	chain := e.inProgress
	if variant == VariantClosing {
		chain = e.closing
	}
	msg, err := chain.Invoke(ctx, vars)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInference, "interviewer reply", err)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", apperr.Wrap(apperr.ErrInference, "interviewer reply", errors.New("empty model response"))
	}
	e.log.Debug("interviewer reply generated", zap.String("reply", logger.TruncateForLog(text, 120)))
	return text, nil
}
