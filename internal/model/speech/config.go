package speech

// VoiceConfig 语音合成配置
type VoiceConfig struct {
	Model    string `json:"model"`    // TTS 模型
	Voice    string `json:"voice"`    // 预置声音名称，如 Charon
	Language string `json:"language"` // en-US 等
}
