package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// RespondError 发送错误响应，格式为 {"detail": message}
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"detail": message})
}

// RespondAppError 根据错误类型选择状态码
func RespondAppError(w http.ResponseWriter, err error) {
	RespondError(w, apperr.HTTPStatus(err), apperr.Message(err))
}
