// Package emotion analyses interview recordings with a multimodal model.
package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/interview-sim/backend/internal/analysis/llmjson"
	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/config"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	emotionmodel "github.com/zhouzirui/interview-sim/backend/internal/model/emotion"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
)

//go:generate mockgen -source=service.go -destination=mock_service_test.go -package=emotion

type fileStore interface {
	UploadFromPath(ctx context.Context, path string, config *genai.UploadFileConfig) (*genai.File, error)
	Get(ctx context.Context, name string, config *genai.GetFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

const cleanupTimeout = 30 * time.Second

// Service downloads interview recordings, stages them with the Gemini Files API and requests an emotion analysis.
type Service struct {
	files      fileStore
	models     ai.ContentGenerator
	httpClient *http.Client
	cfg        config.VideoConfig
	tempDir    string
	log        *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithHTTPClient replaces the client used to download recordings.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithTempDir sets where downloads and output files are written.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// NewService creates the analyzer; files and models are usually client.Files and client.Models.
func NewService(files fileStore, models ai.ContentGenerator, cfg config.VideoConfig, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		files:      files,
		models:     models,
		httpClient: http.DefaultClient,
		cfg:        cfg,
		log:        logger.Named(log, "emotion").With(logger.CommonFields("gemini", cfg.Model)...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the full pipeline for the recording at videoURL. The local
// download, the staged remote copy and the output file are removed on every path.
func (s *Service) Analyze(ctx context.Context, videoURL string) (emotionmodel.Analysis, error) {
	log := s.log.With(zap.String("video_url", videoURL))

	local, err := s.download(ctx, videoURL)
	if local != "" {
		defer s.removeLocal(local, "video")
	}
	if err != nil {
		return emotionmodel.Analysis{}, err
	}

	file, err := s.files.UploadFromPath(ctx, local, &genai.UploadFileConfig{MIMEType: videoMIMEType(videoURL)})
	if err != nil {
		return emotionmodel.Analysis{}, apperr.Wrap(apperr.ErrInference, "upload video", err)
	}
	defer s.deleteRemote(ctx, file.Name)
	log.Info("video staged", zap.String("file", file.Name))

	file, err = s.waitActive(ctx, file)
	if err != nil {
		return emotionmodel.Analysis{}, err
	}

	raw, err := s.infer(ctx, file)
	if err != nil {
		return emotionmodel.Analysis{}, err
	}

	report, err := decodeReport(raw)
	if err != nil {
		log.Warn("emotion report is not valid JSON, returning text", zap.Error(err))
		return emotionmodel.Analysis{Raw: fallbackText(raw, err)}, nil
	}

	out, err := s.writeOutput(report)
	if out != "" {
		defer s.removeLocal(out, "output")
	}
	if err != nil {
		log.Warn("failed to write analysis output", zap.Error(err))
	}

	log.Info("video analysed",
		zap.Int("intervals", len(report.Timestamps)),
		zap.Int("strengths", len(report.InterviewStrengths)),
	)
	return emotionmodel.Analysis{Report: report}, nil
}

func (s *Service) download(ctx context.Context, videoURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", apperr.New(apperr.KindValidation, "download video", "invalid video url %q", videoURL)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperr.New(apperr.KindUpstream, "download video", "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.KindUpstream, "download video",
			"failed to download file from %s (status code: %d)", videoURL, resp.StatusCode)
	}

	f, err := os.CreateTemp(s.tempDir, "interview-video-*"+path.Ext(urlPath(videoURL)))
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	name := f.Name()
	_, cerr := io.Copy(f, resp.Body)
	if err := errors.Join(cerr, f.Close()); err != nil {
		return name, apperr.New(apperr.KindUpstream, "download video", "%v", err)
	}
	return name, nil
}

// waitActive polls the staged file until processing ends, the processing
// timeout elapses or ctx is done.
func (s *Service) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessingTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for file.State == genai.FileStateProcessing {
		select {
		case <-pollCtx.Done():
			return nil, apperr.Wrap(apperr.ErrProcessingFailed, "wait for video", pollCtx.Err())
		case <-ticker.C:
		}

		next, err := s.files.Get(pollCtx, file.Name, nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrProcessingFailed, "wait for video", err)
		}
		file = next
	}

	if file.State == genai.FileStateFailed {
		var cause error = errors.New(string(file.State))
		if file.Error != nil && file.Error.Message != "" {
			cause = errors.New(file.Error.Message)
		}
		return nil, apperr.Wrap(apperr.ErrProcessingFailed, "wait for video", cause)
	}
	return file, nil
}

func (s *Service) infer(ctx context.Context, file *genai.File) (string, error) {
	inferCtx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(analysisPrompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(s.cfg.MaxOutputTokens)}

	start := time.Now()
	resp, err := s.models.GenerateContent(inferCtx, s.cfg.Model, contents, cfg)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInference, "analyse video", err)
	}
	text := ai.ResponseText(resp)
	if text == "" {
		return "", apperr.Wrap(apperr.ErrInference, "analyse video", errors.New("empty model response"))
	}
	s.log.Debug("video inference finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("preview", logger.TruncateForLog(text, 160)),
	)
	return text, nil
}

func (s *Service) writeOutput(report *emotionmodel.Report) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "interview-analysis-*.json")
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	werr := enc.Encode(report)
	return f.Name(), errors.Join(werr, f.Close())
}

func (s *Service) removeLocal(name, what string) {
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove local "+what+" file", zap.String("path", name), zap.Error(err))
	}
}

func (s *Service) deleteRemote(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if _, err := s.files.Delete(ctx, name, nil); err != nil {
		s.log.Warn("failed to delete staged video", zap.String("file", name), zap.Error(err))
	}
}

func decodeReport(raw string) (*emotionmodel.Report, error) {
	var doc map[string]any
	if err := llmjson.Decode(raw, &doc); err != nil {
		return nil, err
	}
	var report emotionmodel.Report
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &report,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode emotion report: %w", err)
	}
	return &report, nil
}

// fallbackText is the scrubbed reply returned when no report could be decoded.
func fallbackText(raw string, err error) string {
	var pe *llmjson.ParseError
	if errors.As(err, &pe) {
		return scrub(pe.Cleaned)
	}
	return scrub(llmjson.Clean(raw))
}

// scrub drops blank lines, fence markers and markdown headings.
func scrub(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "```") || strings.HasPrefix(t, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func urlPath(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

func videoMIMEType(videoURL string) string {
	switch strings.ToLower(path.Ext(urlPath(videoURL))) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "video/webm"
	}
}
