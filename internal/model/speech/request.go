package speech

// TTSRequest 语音合成请求
type TTSRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"`    // 为空时使用配置中的声音
	Language  string `json:"language,omitempty"` // 为空时使用配置中的语言
}
