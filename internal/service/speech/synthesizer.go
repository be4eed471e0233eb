package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	"github.com/zhouzirui/interview-sim/backend/internal/model/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
)

const (
	defaultVoice    = "Charon"
	defaultLanguage = "en-US"
	modalityAudio   = "AUDIO"
)

// GeminiSynthesizer 使用 Gemini TTS 模型合成语音，输出 WAV。
type GeminiSynthesizer struct {
	models ai.ContentGenerator
	voice  speech.VoiceConfig
	log    *zap.Logger
}

// NewGeminiSynthesizer 创建合成器；voice 中未填写的字段使用默认值。
func NewGeminiSynthesizer(models ai.ContentGenerator, voice speech.VoiceConfig, log *zap.Logger) *GeminiSynthesizer {
	if voice.Voice == "" {
		voice.Voice = defaultVoice
	}
	if voice.Language == "" {
		voice.Language = defaultLanguage
	}
	return &GeminiSynthesizer{
		models: models,
		voice:  voice,
		log:    logger.Named(log, "tts").With(logger.CommonFields("gemini", voice.Model)...),
	}
}

// Synthesize 文字转语音
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, apperr.Wrap(apperr.ErrSynthesis, "synthesize", errors.New("text is required"))
	}

	voice := s.voice.Voice
	if req.Voice != "" {
		voice = req.Voice
	}
	language := s.voice.Language
	if req.Language != "" {
		language = req.Language
	}

	cfg := &genai.GenerateContentConfig{
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	cfg.ResponseModalities = append(cfg.ResponseModalities, modalityAudio)

	contents := []*genai.Content{genai.NewContentFromText(req.Text, genai.RoleUser)}
	start := time.Now()
	resp, err := s.models.GenerateContent(ctx, s.voice.Model, contents, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSynthesis, "synthesize", err)
	}

	blob := audioPart(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, apperr.Wrap(apperr.ErrSynthesis, "synthesize", errors.New("no audio in response"))
	}

	format, err := parsePCMFormat(blob.MIMEType)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSynthesis, "synthesize", err)
	}

	s.log.Debug("speech synthesized",
		zap.String("voice", voice),
		zap.Int("pcm_bytes", len(blob.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &speech.TTSResponse{
		SessionID: req.SessionID,
		AudioData: format.wav(blob.Data),
		Duration:  format.duration(len(blob.Data)).Milliseconds(),
		Format:    "wav",
		CreatedAt: time.Now().UTC(),
	}, nil
}

func audioPart(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}
