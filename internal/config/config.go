package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Speech     SpeechConfig
	Storage    StorageConfig
	Document   DocumentConfig
	Interview  InterviewConfig
	Video      VideoConfig
	Evaluation EvaluationConfig
}

// Load 从 viper 中读取配置。v 为空时使用仅绑定环境变量的新实例。
// 命令行参数应在调用前通过 BindPFlag 绑定到同名 key 上。
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	r := reader{v: v}

	server, err := loadServerConfig(&r)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: server,
		Log: LogConfig{
			JSON:  r.getBool("log_json"),
			Debug: r.getBool("debug"),
		},
		AI:       loadAIConfig(&r),
		Speech:   loadSpeechConfig(&r),
		Storage:  loadStorageConfig(&r),
		Document: DocumentConfig{ServiceURL: r.getString("pdf_service_url"), Timeout: r.getDuration("pdf_service_timeout")},
		Interview: InterviewConfig{
			MaxTurns:     r.getInt("interview_max_turns"),
			PingInterval: r.getDuration("interview_ping_interval"),
			PersonaID:    r.getString("interview_persona"),
		},
		Video: VideoConfig{
			Model:             r.getString("video_model"),
			PollInterval:      r.getDuration("video_poll_interval"),
			ProcessingTimeout: r.getDuration("video_processing_timeout"),
			InferenceTimeout:  r.getDuration("video_inference_timeout"),
			MaxOutputTokens:   r.getInt("video_max_output_tokens"),
		},
		Evaluation: EvaluationConfig{
			MaxTokens:  r.getInt("evaluation_max_tokens"),
			RubricFile: r.getString("rubric_file"),
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_json", "false")
	v.SetDefault("debug", "false")

	v.SetDefault("llm_provider", ProviderGemini)
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("ark_base_url", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("ark_region", "cn-beijing")
	v.SetDefault("llm_temperature", "0.7")
	v.SetDefault("llm_top_p", "0.95")
	v.SetDefault("llm_top_k", "40")

	v.SetDefault("tts_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("tts_voice", "Charon")
	v.SetDefault("tts_language", "en-US")

	v.SetDefault("audio_container", "interview-audio")
	v.SetDefault("video_container", "interview-videos")
	v.SetDefault("recordings_dir", "recordings")
	v.SetDefault("public_base_url", "http://localhost:8080")

	v.SetDefault("pdf_service_timeout", "60s")

	v.SetDefault("interview_max_turns", "10")
	v.SetDefault("interview_ping_interval", "30s")
	v.SetDefault("interview_persona", "alex")

	v.SetDefault("video_poll_interval", "10s")
	v.SetDefault("video_processing_timeout", "10m")
	v.SetDefault("video_inference_timeout", "60s")
	v.SetDefault("video_max_output_tokens", "8000")

	v.SetDefault("evaluation_max_tokens", "3000")
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderArk:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER value %q: want %q or %q", c.AI.Provider, ProviderGemini, ProviderArk)
	}
	if c.Interview.MaxTurns < 1 {
		return fmt.Errorf("invalid INTERVIEW_MAX_TURNS value %d: must be positive", c.Interview.MaxTurns)
	}
	if c.Interview.PingInterval <= 0 {
		return fmt.Errorf("invalid INTERVIEW_PING_INTERVAL value %s: must be positive", c.Interview.PingInterval)
	}
	if c.Video.PollInterval <= 0 || c.Video.ProcessingTimeout <= 0 || c.Video.InferenceTimeout <= 0 {
		return fmt.Errorf("video poll interval and timeouts must be positive")
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(r *reader) (ServerConfig, error) {
	port := r.getString("port")
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 控制日志输出格式。
type LogConfig struct {
	JSON  bool
	Debug bool
}

// SpeechConfig 描述语音合成配置
type SpeechConfig struct {
	APIKey   string
	Model    string
	Voice    string
	Language string
}

// Enabled 表示是否可以调用语音合成服务。
func (c SpeechConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

func loadSpeechConfig(r *reader) SpeechConfig {
	apiKey := r.getString("tts_api_key")
	if apiKey == "" {
		apiKey = geminiKey(r)
	}
	return SpeechConfig{
		APIKey:   apiKey,
		Model:    r.getString("tts_model"),
		Voice:    r.getString("tts_voice"),
		Language: r.getString("tts_language"),
	}
}

// StorageConfig 描述录音、音频文件的存储位置。
type StorageConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
	ServiceURL       string
	AudioContainer   string
	VideoContainer   string
	RecordingsDir    string
	PublicBaseURL    string
}

// RemoteEnabled 表示是否配置了 Azure Blob 存储。
func (c StorageConfig) RemoteEnabled() bool {
	return c.ConnectionString != "" || c.ServiceURL != "" || c.AccountName != ""
}

func loadStorageConfig(r *reader) StorageConfig {
	return StorageConfig{
		AccountName:      r.getString("azure_storage_account"),
		AccountKey:       r.getString("azure_storage_key"),
		ConnectionString: r.getString("azure_storage_connection_string"),
		ServiceURL:       r.getString("azure_storage_service_url"),
		AudioContainer:   r.getString("audio_container"),
		VideoContainer:   r.getString("video_container"),
		RecordingsDir:    r.getString("recordings_dir"),
		PublicBaseURL:    strings.TrimRight(r.getString("public_base_url"), "/"),
	}
}

// DocumentConfig 描述简历解析方式；ServiceURL 为空时使用本地解析。
type DocumentConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

// InterviewConfig 描述面试流程参数。
type InterviewConfig struct {
	MaxTurns     int
	PingInterval time.Duration
	PersonaID    string
}

// VideoConfig 描述视频情绪分析参数。
type VideoConfig struct {
	Model             string
	PollInterval      time.Duration
	ProcessingTimeout time.Duration
	InferenceTimeout  time.Duration
	MaxOutputTokens   int
}

// EvaluationConfig 描述面试评分参数。
type EvaluationConfig struct {
	MaxTokens  int
	RubricFile string
}

// reader 封装 viper 取值，记录第一个解析错误。
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) fail(key, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
}

func (r *reader) getString(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) getBool(key string) bool {
	raw := r.getString(key)
	if raw == "" {
		return false
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return false
	}
	return val
}

func (r *reader) getInt(key string) int {
	raw := r.getString(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return 0
	}
	return val
}

func (r *reader) getOptionalFloat(key string) *float64 {
	raw := r.getString(key)
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(key, raw, err)
		return nil
	}
	return &val
}

func (r *reader) getOptionalInt(key string) *int {
	raw := r.getString(key)
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return nil
	}
	return &val
}

// getDuration 接受 Go 时长格式 ("30s") 或纯秒数 ("30")。
func (r *reader) getDuration(key string) time.Duration {
	raw := r.getString(key)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return 0
	}
	return val
}
