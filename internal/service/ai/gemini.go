package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/interview-sim/backend/internal/logger"
)

// ContentGenerator is the slice of the genai Models API the chat model needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenAIClient creates a client for the Gemini API backend.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// Sampling carries generation parameters for GeminiChatModel.
type Sampling struct {
	Temperature *float32
	TopP        *float32
	TopK        *float32
	MaxTokens   int32
}

// GeminiChatModel adapts the Gemini API to eino's chat model interface so it
// can sit in the same chains as the Ark model.
type GeminiChatModel struct {
	models   ContentGenerator
	model    string
	sampling Sampling
	log      *zap.Logger
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel wraps models (usually client.Models) for the named model.
func NewGeminiChatModel(models ContentGenerator, modelName string, sampling Sampling, log *zap.Logger) *GeminiChatModel {
	return &GeminiChatModel{
		models:   models,
		model:    modelName,
		sampling: sampling,
		log:      logger.Named(log, "gemini").With(logger.CommonFields("gemini", modelName)...),
	}
}

// Generate implements model.BaseChatModel.
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	modelName, cfg := g.requestConfig(opts...)
	contents, system := toContents(input)
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini request has no user or model content")
	}

	resp, err := g.models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := ResponseText(resp)
	if text == "" {
		return nil, errors.New("gemini returned empty response")
	}

	msg := schema.AssistantMessage(text, nil)
	msg.ResponseMeta = responseMeta(resp)
	g.log.Debug("gemini response",
		zap.Int("chars", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 120)),
	)
	return msg, nil
}

// Stream implements model.BaseChatModel with a single-chunk stream.
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (g *GeminiChatModel) requestConfig(opts ...model.Option) (string, *genai.GenerateContentConfig) {
	var maxTokens *int
	if g.sampling.MaxTokens > 0 {
		v := int(g.sampling.MaxTokens)
		maxTokens = &v
	}
	modelName := g.model
	common := model.GetCommonOptions(&model.Options{
		Model:       &modelName,
		Temperature: g.sampling.Temperature,
		TopP:        g.sampling.TopP,
		MaxTokens:   maxTokens,
	}, opts...)

	cfg := &genai.GenerateContentConfig{
		Temperature:   common.Temperature,
		TopP:          common.TopP,
		TopK:          g.sampling.TopK,
		StopSequences: common.Stop,
	}
	if common.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*common.MaxTokens)
	}
	if common.Model != nil && *common.Model != "" {
		modelName = *common.Model
	}
	return modelName, cfg
}

// toContents splits eino messages into Gemini contents and a system instruction.
func toContents(input []*schema.Message) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			if s := strings.TrimSpace(msg.Content); s != "" {
				system = append(system, s)
			}
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n\n")
}

// ResponseText concatenates the text parts of every candidate in resp.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func responseMeta(resp *genai.GenerateContentResponse) *schema.ResponseMeta {
	meta := &schema.ResponseMeta{}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		meta.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		meta.Usage = &schema.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return meta
}
