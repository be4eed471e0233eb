package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/config"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
)

const app = "interview-sim"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          app,
		Short:        "Interview simulation backend: resume-driven spoken interviews with scoring",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	root.PersistentFlags().String("port", "", "listen port or address (overrides PORT)")

	mustBind(v, root, "debug", "debug")
	mustBind(v, root, "log_json", "json")
	mustBind(v, root, "port", "port")

	root.AddCommand(newServeCmd(v))
	root.AddCommand(newSynthesizeCmd(v))
	return root
}

// mustBind binds a persistent flag of cmd to key; a failure is a programming error.
func mustBind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// bootstrap loads .env and the configuration, then builds the process logger.
func bootstrap(v *viper.Viper) (*config.Config, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(log)

	if envErr != nil {
		log.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}
	return cfg, log, nil
}
