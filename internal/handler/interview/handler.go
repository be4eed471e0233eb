// Package interview 面试流程的 REST 接口：上传简历、开场白、上传录像以及面试结束后的评分。
package interview

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	emotionmodel "github.com/zhouzirui/interview-sim/backend/internal/model/emotion"
	evalmodel "github.com/zhouzirui/interview-sim/backend/internal/model/evaluation"
	interviewmodel "github.com/zhouzirui/interview-sim/backend/internal/model/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/document"
	interviewsvc "github.com/zhouzirui/interview-sim/backend/internal/service/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
	"github.com/zhouzirui/interview-sim/backend/pkg/utils"
)

const (
	maxUploadMemory = 32 << 20

	messageHistoryNotFound = "Chat history for the requested file not found."
)

type ingestor interface {
	Ingest(ctx context.Context, name, contentType string, data []byte, opts ...document.IngestOption) (string, error)
}

type greeter interface {
	Greet(ctx context.Context, personaID string) (interviewsvc.Greeting, error)
}

type sessionStore interface {
	Get(key string) (interviewmodel.Session, error)
	Delete(key string) error
	SetVideoURL(key, url string) error
}

type evaluator interface {
	EvaluateEntries(ctx context.Context, conversationID string, entries []interviewmodel.Entry) (evalmodel.Result, error)
}

type analyzer interface {
	Analyze(ctx context.Context, videoURL string) (emotionmodel.Analysis, error)
}

type recordings interface {
	Save(name string, r io.Reader) (string, error)
	URL(name string) string
}

// Deps 面试处理器的依赖。Analyzer 可以为空，此时不做录像分析。
type Deps struct {
	Ingestor   ingestor
	Greeter    greeter
	Sessions   sessionStore
	Evaluator  evaluator
	Analyzer   analyzer
	Recordings recordings
	Publisher  storage.Store
	Log        *zap.Logger
}

// Handler 面试流程的HTTP处理器
type Handler struct {
	deps Deps
	log  *zap.Logger
}

// New 创建面试处理器
func New(deps Deps) *Handler {
	return &Handler{deps: deps, log: logger.Named(deps.Log, "interview-http")}
}

// RegisterRoutes 注册面试相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
	r.Get("/start", h.handleStart)
	r.Delete("/end_chat", h.handleEndChat)
	r.Post("/analyze_interview", h.handleAnalyze)
	r.Post("/upload-video", h.handleUploadVideo)
}

// handleUpload 上传简历并创建会话
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	name := header.Filename
	if _, err := h.deps.Ingestor.Ingest(r.Context(), name, header.Header.Get("Content-Type"), data,
		document.WithPersona(r.FormValue("persona"))); err != nil {
		h.log.Warn("resume upload failed", zap.String("file", name), zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "File successfully processed",
		"file":    name,
	})
}

// handleStart 返回面试官的开场白及其语音
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	greeting, err := h.deps.Greeter.Greet(r.Context(), r.URL.Query().Get("persona"))
	if err != nil {
		h.log.Warn("greeting failed", zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": greeting.Text,
		"audio":   greeting.AudioURL,
	})
}

type endChatResponse struct {
	Scorecard            evalmodel.Result            `json:"scorecard"`
	Conversation         interviewmodel.Conversation `json:"conversation"`
	EmotionAnalysis      *emotionmodel.Analysis      `json:"emotion_analysis,omitempty"`
	EmotionAnalysisError string                      `json:"emotion_analysis_error,omitempty"`
}

// handleEndChat 结束面试：评分（以及视频分析）后丢弃会话
func (h *Handler) handleEndChat(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("file_name")
	session, ok := h.session(w, key)
	if !ok {
		return
	}

	conversation := interviewmodel.Conversation{ID: key, Messages: session.Transcript.Entries()}
	resp := endChatResponse{Conversation: conversation}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		result, err := h.deps.Evaluator.EvaluateEntries(ctx, key, conversation.Messages)
		if err != nil {
			return err
		}
		resp.Scorecard = result
		return nil
	})
	if session.VideoURL != "" && h.deps.Analyzer != nil {
		g.Go(func() error {
			analysis, err := h.deps.Analyzer.Analyze(ctx, session.VideoURL)
			if err != nil {
				// 视频分析失败不影响评分结果
				h.log.Warn("video analysis failed", logger.Session(key), zap.Error(err))
				resp.EmotionAnalysisError = apperr.Message(err)
				return nil
			}
			resp.EmotionAnalysis = &analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.log.Error("evaluation failed", logger.Session(key), zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}

	if err := h.deps.Sessions.Delete(key); err != nil {
		h.log.Debug("session already discarded", logger.Session(key), zap.Error(err))
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleAnalyze 只评分，不结束会话
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("file_name")
	session, ok := h.session(w, key)
	if !ok {
		return
	}
	result, err := h.deps.Evaluator.EvaluateEntries(r.Context(), key, session.Transcript.Entries())
	if err != nil {
		h.log.Error("evaluation failed", logger.Session(key), zap.Error(err))
		utils.RespondAppError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleUploadVideo 保存面试录像并登记到会话
func (h *Handler) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()
	key := strings.TrimSpace(r.FormValue("file_name"))
	if key == "" {
		utils.RespondError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	if _, ok := h.session(w, key); !ok {
		return
	}

	video, header, err := r.FormFile("video")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "video is required")
		return
	}
	defer video.Close()

	name := recordingName(key, header.Filename)
	path, err := h.deps.Recordings.Save(name, video)
	if err != nil {
		h.log.Error("save recording failed", logger.Session(key), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to store video")
		return
	}

	url := h.deps.Recordings.URL(name)
	if h.deps.Publisher != nil {
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "video/webm"
		}
		published, err := h.deps.Publisher.PutFile(r.Context(), storage.KindVideo, path, name, contentType)
		if err != nil {
			h.log.Warn("recording upload failed, serving local copy", logger.Session(key), zap.Error(err))
		} else {
			url = published
		}
	}

	if err := h.deps.Sessions.SetVideoURL(key, url); err != nil {
		utils.RespondAppError(w, err)
		return
	}

	h.log.Info("recording registered", logger.Session(key), zap.String("url", url))
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":   "Video uploaded successfully",
		"url":       url,
		"file_name": key,
	})
}

func (h *Handler) session(w http.ResponseWriter, key string) (interviewmodel.Session, bool) {
	if key == "" {
		utils.RespondError(w, http.StatusBadRequest, "file_name is required")
		return interviewmodel.Session{}, false
	}
	session, err := h.deps.Sessions.Get(key)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			utils.RespondError(w, http.StatusNotFound, messageHistoryNotFound)
		} else {
			utils.RespondAppError(w, err)
		}
		return interviewmodel.Session{}, false
	}
	return session, true
}

// recordingName 录像文件名为 "<简历文件名>-interview<扩展名>"，每个会话只保留一份录像
func recordingName(key, uploaded string) string {
	ext := strings.ToLower(filepath.Ext(uploaded))
	if ext == "" {
		ext = ".webm"
	}
	return filepath.Base(key) + "-interview" + ext
}
