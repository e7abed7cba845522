package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/internal/version"
	"github.com/hrygo/converse/plugin/llm"
	"github.com/hrygo/converse/server"
	"github.com/hrygo/converse/store"
	"github.com/hrygo/converse/store/db"
)

const (
	greetingBanner = `Converse - conversational chat backend`
)

var (
	rootCmd = &cobra.Command{
		Use:   "converse",
		Short: "A chat backend with LLM-generated replies and feedback insights",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := context.WithCancel(context.Background())
			instanceProfile := &profile.Profile{
				Mode:    viper.GetString("mode"),
				Addr:    viper.GetString("addr"),
				Port:    viper.GetInt("port"),
				Data:    viper.GetString("data"),
				Driver:  viper.GetString("driver"),
				DSN:     viper.GetString("dsn"),
				Version: version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				cancel()
				slog.Error("invalid profile", slog.Any("err", err))
				return
			}

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create db driver", slog.Any("err", err))
				return
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate db", slog.Any("err", err))
				return
			}

			llmProvider := llm.NewProvider(&llm.Config{
				BaseURL: instanceProfile.LLMBaseURL,
				APIKey:  instanceProfile.LLMAPIKey,
				Model:   instanceProfile.LLMModel,
				Timeout: time.Duration(instanceProfile.LLMTimeoutSec) * time.Second,
			})
			if !instanceProfile.IsLLMEnabled() {
				slog.Warn("no LLM API key configured, AI replies will fail until one is set")
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance, llmProvider)
			if err != nil {
				cancel()
				slog.Error("failed to create server", slog.Any("err", err))
				return
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			go func() {
				sig := <-c
				slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
				s.Shutdown(ctx)
				cancel()
			}()

			printGreetings(instanceProfile)

			if err := s.Start(ctx); err != nil {
				cancel()
				slog.Error("failed to start server", slog.Any("err", err))
				return
			}

			// Wait for shutdown.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	if err := viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("converse")
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Println(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", profile.Version, profile.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", slog.Any("err", err))
		os.Exit(1)
	}
}
