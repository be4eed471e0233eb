// Package ai builds the chat models and chains used by the interview, evaluation
// and analysis services.
package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/config"
)

// Factory creates chat models for the configured provider.
type Factory struct {
	cfg    config.AIConfig
	gemini ContentGenerator
	log    *zap.Logger
}

// NewFactory prepares a model factory. For the gemini provider a genai client
// is created once and shared by every model the factory returns.
func NewFactory(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Factory, error) {
	f := &Factory{cfg: cfg, log: log}
	if cfg.Provider == config.ProviderGemini {
		client, err := NewGenAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		f.gemini = client.Models
	}
	return f, nil
}

// NewFactoryWithGenerator is used when the caller already owns a genai client.
func NewFactoryWithGenerator(cfg config.AIConfig, models ContentGenerator, log *zap.Logger) *Factory {
	return &Factory{cfg: cfg, gemini: models, log: log}
}

// Provider returns the configured provider name.
func (f *Factory) Provider() string {
	return f.cfg.Provider
}

// ChatModel returns a model using the configured sampling parameters.
// maxTokens overrides the configured output limit when positive.
func (f *Factory) ChatModel(ctx context.Context, maxTokens int) (model.BaseChatModel, error) {
	var limit *int
	if maxTokens > 0 {
		limit = &maxTokens
	} else {
		limit = f.cfg.MaxTokens
	}

	switch f.cfg.Provider {
	case config.ProviderArk:
		m, err := f.cfg.NewArkChatModel(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		return m, nil
	case config.ProviderGemini:
		if f.gemini == nil {
			return nil, fmt.Errorf("gemini client not initialised")
		}
		sampling := Sampling{
			Temperature: float32Ptr(f.cfg.Temperature),
			TopP:        float32Ptr(f.cfg.TopP),
		}
		if f.cfg.TopK != nil {
			k := float32(*f.cfg.TopK)
			sampling.TopK = &k
		}
		if limit != nil {
			sampling.MaxTokens = int32(*limit)
		}
		return NewGeminiChatModel(f.gemini, f.cfg.GeminiModel, sampling, f.log), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", f.cfg.Provider)
	}
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}
