package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/interview-sim/backend/internal/config"
	"github.com/zhouzirui/interview-sim/backend/internal/handler"
	"github.com/zhouzirui/interview-sim/backend/internal/handler/chat"
	interviewhandler "github.com/zhouzirui/interview-sim/backend/internal/handler/interview"
	evalmodel "github.com/zhouzirui/interview-sim/backend/internal/model/evaluation"
	"github.com/zhouzirui/interview-sim/backend/internal/model/persona"
	speechmodel "github.com/zhouzirui/interview-sim/backend/internal/model/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
	"github.com/zhouzirui/interview-sim/backend/internal/service/document"
	emotionservice "github.com/zhouzirui/interview-sim/backend/internal/service/emotion"
	"github.com/zhouzirui/interview-sim/backend/internal/service/evaluation"
	"github.com/zhouzirui/interview-sim/backend/internal/service/interview"
	"github.com/zhouzirui/interview-sim/backend/internal/service/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	personaStore := persona.NewMemoryStore(persona.Seed())

	rubric := evalmodel.DefaultRubric()
	if cfg.Evaluation.RubricFile != "" {
		loaded, err := evalmodel.LoadRubric(cfg.Evaluation.RubricFile)
		if err != nil {
			return fmt.Errorf("failed to load rubric: %w", err)
		}
		rubric = loaded
		log.Info("rubric loaded", zap.String("file", cfg.Evaluation.RubricFile), zap.Int("total", rubric.Total()))
	}

	if !cfg.AI.Enabled() {
		return fmt.Errorf("%s credentials are not configured", cfg.AI.Provider)
	}

	// Gemini 客户端同时服务对话模型、视频分析和语音合成
	var client *genai.Client
	if cfg.AI.GeminiAPIKey != "" {
		c, err := ai.NewGenAIClient(ctx, cfg.AI.GeminiAPIKey)
		if err != nil {
			return err
		}
		client = c
	}

	var factory *ai.Factory
	if cfg.AI.Provider == config.ProviderGemini {
		factory = ai.NewFactoryWithGenerator(cfg.AI, client.Models, log)
	} else {
		f, err := ai.NewFactory(ctx, cfg.AI, log)
		if err != nil {
			return err
		}
		factory = f
	}

	turnModel, err := factory.ChatModel(ctx, 0)
	if err != nil {
		return err
	}
	evalModel, err := factory.ChatModel(ctx, cfg.Evaluation.MaxTokens)
	if err != nil {
		return err
	}

	local, err := storage.NewLocalStore(cfg.Storage.RecordingsDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return err
	}
	publisher := &storage.FallbackStore{Secondary: local, Log: log}
	if cfg.Storage.RemoteEnabled() {
		azure, err := storage.NewAzureStore(cfg.Storage, log)
		if err != nil {
			log.Warn("azure storage unavailable, files are served locally", zap.Error(err))
		} else {
			publisher.Primary = azure
		}
	}

	sessions := interview.NewStore()
	engineOpts := interview.Options{
		MaxTurns:         cfg.Interview.MaxTurns,
		DefaultPersonaID: cfg.Interview.PersonaID,
		Log:              log,
	}
	services := handler.Services{
		Personas:      personaStore,
		RecordingsDir: local.Dir(),
		PingInterval:  cfg.Interview.PingInterval,
		Connections:   chat.NewConnectionManager(),
		Log:           log,
	}

	if cfg.Speech.Enabled() {
		ttsClient := client
		if ttsClient == nil || cfg.Speech.APIKey != cfg.AI.GeminiAPIKey {
			ttsClient, err = ai.NewGenAIClient(ctx, cfg.Speech.APIKey)
			if err != nil {
				return err
			}
		}
		synth := speech.NewGeminiSynthesizer(ttsClient.Models, speechmodel.VoiceConfig{
			Model:    cfg.Speech.Model,
			Voice:    cfg.Speech.Voice,
			Language: cfg.Speech.Language,
		}, log)
		renderer := speech.NewService(synth, publisher, log)
		engineOpts.Speaker = renderer
		services.Synthesizer = synth
		services.Renderer = renderer
		log.Info("speech synthesis enabled", zap.String("model", cfg.Speech.Model), zap.String("voice", cfg.Speech.Voice))
	} else {
		log.Info("语音合成未配置，回复不附带音频")
	}

	engine, err := interview.NewEngine(ctx, sessions, personaStore, turnModel, engineOpts)
	if err != nil {
		return err
	}

	var extractor document.Extractor = document.LocalExtractor{}
	if cfg.Document.ServiceURL != "" {
		extractor = document.NewHTTPExtractor(cfg.Document.ServiceURL, cfg.Document.Timeout)
	}

	evaluator, err := evaluation.NewService(ctx, sessions, rubric, evalModel, log)
	if err != nil {
		return err
	}

	services.Engine = engine
	services.Interview = interviewhandler.Deps{
		Ingestor:   document.NewIngestor(extractor, sessions, log),
		Greeter:    engine,
		Sessions:   sessions,
		Evaluator:  evaluator,
		Recordings: local,
		Publisher:  publisher,
		Log:        log,
	}

	if client != nil {
		services.Interview.Analyzer = emotionservice.NewService(client.Files, client.Models, cfg.Video, log)
		log.Info("video emotion analysis enabled", zap.String("model", cfg.Video.Model))
	} else {
		log.Info("GEMINI_API_KEY 未配置，跳过视频情绪分析")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(services),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Shutdown 不跟踪被劫持的 WebSocket 连接
	srv.RegisterOnShutdown(services.Connections.CloseAll)

	log.Info("interview backend listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", factory.Provider()),
		zap.Int("max_turns", cfg.Interview.MaxTurns))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
