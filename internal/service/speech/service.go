// Package speech renders interviewer replies to audio files clients can play.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	"github.com/zhouzirui/interview-sim/backend/internal/model/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
)

//go:generate mockgen -source=service.go -destination=mock_service_test.go -package=speech

type synthesizer interface {
	Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error)
}

type uploader interface {
	PutFile(ctx context.Context, kind storage.Kind, path, name, contentType string) (string, error)
}

// Service synthesizes a reply into a temporary wav file, uploads it and hands back the URL.
type Service struct {
	synth    synthesizer
	uploader uploader
	tempDir  string
	log      *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithTempDir sets where intermediate audio files are written.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// NewService creates a renderer publishing through up.
func NewService(synth synthesizer, up uploader, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		synth:    synth,
		uploader: up,
		log:      logger.Named(log, "speech"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render synthesizes text and returns the public URL of the uploaded audio.
// The intermediate file is removed on every path.
func (s *Service) Render(ctx context.Context, text string) (string, error) {
	resp, err := s.synth.Synthesize(ctx, &speech.TTSRequest{Text: text})
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(s.tempDir, "tts-*.wav")
	if err != nil {
		return "", apperr.Wrap(apperr.ErrSynthesis, "render", fmt.Errorf("create temp audio: %w", err))
	}
	path := f.Name()
	defer s.remove(path)

	_, werr := f.Write(resp.AudioData)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return "", apperr.Wrap(apperr.ErrSynthesis, "render", fmt.Errorf("write temp audio: %w", err))
	}

	name := uuid.NewString() + ".wav"
	url, err := s.uploader.PutFile(ctx, storage.KindAudio, path, name, "audio/wav")
	if err != nil {
		if errors.Is(err, apperr.ErrUpload) {
			return "", err
		}
		return "", apperr.Wrap(apperr.ErrUpload, "render", err)
	}

	s.log.Info("reply audio published",
		zap.String("name", name),
		zap.Int64("duration_ms", resp.Duration),
		zap.Int("bytes", len(resp.AudioData)),
	)
	return url, nil
}

func (s *Service) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove temp audio", zap.String("path", path), zap.Error(err))
	}
}
