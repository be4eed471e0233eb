// Package speech 通过 HTTP 提供语音合成，用于手动测试和客户端重放面试官语音。
package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	speechmodel "github.com/zhouzirui/interview-sim/backend/internal/model/speech"
	"github.com/zhouzirui/interview-sim/backend/pkg/utils"
)

// Synthesizer 合成音频数据
type Synthesizer interface {
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// Renderer 合成并上传音频，返回访问地址
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
}

// Handler 语音服务的HTTP处理器
type Handler struct {
	synth    Synthesizer
	renderer Renderer
	log      *zap.Logger
}

// New 创建语音处理器
func New(synth Synthesizer, renderer Renderer, log *zap.Logger) *Handler {
	return &Handler{synth: synth, renderer: renderer, log: logger.Named(log, "speech-http")}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(r chi.Router) {
		r.Post("/synthesize", h.handleSynthesize)
		r.Post("/render", h.handleRender)
		r.Get("/health", h.handleHealth)
	})
}

// handleSynthesize 直接返回合成的音频
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req speechmodel.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	resp, err := h.synth.Synthesize(r.Context(), &req)
	if err != nil {
		h.log.Warn("TTS error", zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}

	format := resp.Format
	if format == "" {
		format = "wav"
	}
	w.Header().Set("Content-Type", "audio/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.AudioData)))
	w.Header().Set("Content-Disposition", "attachment; filename=speech."+format)
	w.Header().Set("X-Audio-Duration-Ms", strconv.FormatInt(resp.Duration, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.AudioData); err != nil {
		h.log.Debug("failed to write audio response", zap.Error(err))
	}
}

// handleRender 合成并上传，返回音频地址
func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	var req speechmodel.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	url, err := h.renderer.Render(r.Context(), req.Text)
	if err != nil {
		h.log.Warn("render error", zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"audio": url})
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}
