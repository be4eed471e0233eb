package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/interview-sim/backend/internal/model/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/ai"
	"github.com/zhouzirui/interview-sim/backend/internal/service/speech"
	"github.com/zhouzirui/interview-sim/backend/internal/service/storage"
)

type synthesizeOptions struct {
	text     string
	out      string
	voice    string
	language string
	upload   bool
	timeout  time.Duration
}

// newSynthesizeCmd 手动测试语音合成：写出 wav，可选上传并打印 URL。
func newSynthesizeCmd(v *viper.Viper) *cobra.Command {
	opts := &synthesizeOptions{}
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize a line of text with the configured voice and write a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.text) == "" {
				return errors.New("--text is required")
			}
			cfg, log, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cfg.Speech.Enabled() {
				return errors.New("speech synthesis is not configured: set TTS_API_KEY or GEMINI_API_KEY")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client, err := ai.NewGenAIClient(ctx, cfg.Speech.APIKey)
			if err != nil {
				return err
			}
			synth := speech.NewGeminiSynthesizer(client.Models, speechmodel.VoiceConfig{
				Model:    cfg.Speech.Model,
				Voice:    cfg.Speech.Voice,
				Language: cfg.Speech.Language,
			}, log)

			sessionID := fmt.Sprintf("manual-%d", time.Now().UnixNano())
			log.Info("synthesizing", zap.String("session", sessionID), zap.String("voice", opts.voice))
			resp, err := synth.Synthesize(ctx, &speechmodel.TTSRequest{
				SessionID: sessionID,
				Text:      opts.text,
				Voice:     opts.voice,
				Language:  opts.language,
			})
			if err != nil {
				return err
			}

			out := opts.out
			if out == "" {
				out = fmt.Sprintf("tts-output-%d.%s", time.Now().Unix(), resp.Format)
			}
			if err := os.WriteFile(out, resp.AudioData, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			log.Info("audio written", zap.String("file", out), zap.Int64("duration_ms", resp.Duration))

			if !opts.upload {
				return nil
			}

			local, err := storage.NewLocalStore(cfg.Storage.RecordingsDir, cfg.Storage.PublicBaseURL)
			if err != nil {
				return err
			}
			publisher := &storage.FallbackStore{Secondary: local, Log: log}
			if cfg.Storage.RemoteEnabled() {
				azure, err := storage.NewAzureStore(cfg.Storage, log)
				if err != nil {
					return err
				}
				publisher.Primary = azure
			}
			url, err := publisher.PutFile(ctx, storage.KindAudio, out, filepath.Base(out), "audio/wav")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "text to synthesize")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output wav path (default tts-output-<unix>.wav)")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "prebuilt voice name, defaults to TTS_VOICE")
	cmd.Flags().StringVar(&opts.language, "lang", "", "language code, defaults to TTS_LANGUAGE")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "publish the file and print its URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "request timeout")
	return cmd
}
