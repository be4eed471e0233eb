package config

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	Temperature *float64
	TopP        *float64
	TopK        *int
	MaxTokens   *int
}

// Enabled 表示是否提供了所选模型供应商的必需密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	}
}

// NewArkChatModel 使用 Ark 配置创建一个模型实例。maxTokens 非空时覆盖配置值。
func (c AIConfig) NewArkChatModel(ctx context.Context, maxTokens *int) (model.BaseChatModel, error) {
	if c.ArkModel == "" || (c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "")) {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	if maxTokens == nil {
		maxTokens = c.MaxTokens
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: toFloat32(c.Temperature),
		TopP:        toFloat32(c.TopP),
	}

	return ark.NewChatModel(ctx, cfg)
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func loadAIConfig(r *reader) AIConfig {
	return AIConfig{
		Provider:     r.getString("llm_provider"),
		GeminiAPIKey: geminiKey(r),
		GeminiModel:  r.getString("gemini_model"),
		ArkAPIKey:    r.getString("ark_api_key"),
		ArkAccessKey: r.getString("ark_access_key"),
		ArkSecretKey: r.getString("ark_secret_key"),
		ArkModel:     r.getString("ark_model"),
		ArkBaseURL:   r.getString("ark_base_url"),
		ArkRegion:    r.getString("ark_region"),
		Temperature:  r.getOptionalFloat("llm_temperature"),
		TopP:         r.getOptionalFloat("llm_top_p"),
		TopK:         r.getOptionalInt("llm_top_k"),
		MaxTokens:    r.getOptionalInt("llm_max_tokens"),
	}
}

// geminiKey 优先读取 GEMINI_API_KEY，兼容 GOOGLE_API_KEY。
func geminiKey(r *reader) string {
	if key := r.getString("gemini_api_key"); key != "" {
		return key
	}
	return r.getString("google_api_key")
}
