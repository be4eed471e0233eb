package speech

import "time"

// TTSResponse 语音合成响应
type TTSResponse struct {
	SessionID string    `json:"sessionId,omitempty"`
	AudioData []byte    `json:"-"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	Duration  int64     `json:"duration"` // milliseconds
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"createdAt"`
}
