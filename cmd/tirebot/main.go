package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oponexis/tirebot/bot"
	"github.com/oponexis/tirebot/bot/dialog"
	"github.com/oponexis/tirebot/bot/search"
	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/internal/version"
	"github.com/oponexis/tirebot/plugin/media"
	"github.com/oponexis/tirebot/server"
	"github.com/oponexis/tirebot/store"
	"github.com/oponexis/tirebot/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "tirebot",
	Short: `A tire warehouse service: Telegram bot for batch intake and search, plus an admin panel API.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Systemd deployments pass environment through the unit file.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
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
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		mediaStorage, err := media.NewLocalStorage(
			filepath.Join(instanceProfile.Data, "photos"),
			instanceProfile.PanelBaseURL+"/file/photos",
		)
		if err != nil {
			slog.Error("failed to create media storage", "error", err)
			return
		}

		var telegramBot *bot.Bot
		if instanceProfile.IsBotEnabled() {
			resolver := search.NewResolver(storeInstance)
			engine := dialog.NewEngine(storeInstance, resolver, mediaStorage, instanceProfile.PanelBaseURL)
			telegramBot, err = bot.New(instanceProfile, storeInstance, engine, resolver)
			if err != nil {
				slog.Error("failed to create telegram bot", "error", err)
				return
			}
			if webhookURL := os.Getenv("TIREBOT_WEBHOOK_URL"); webhookURL != "" {
				if err := telegramBot.SetWebhook(webhookURL + "/webhook/" + instanceProfile.WebhookSecret); err != nil {
					slog.Error("failed to register webhook", "error", err)
					return
				}
			}
		} else {
			slog.Warn("telegram bot token is not configured, bot is disabled")
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, telegramBot, mediaStorage)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			return
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28091)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28091, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("tirebot")
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Tirebot %s started successfully!\n", profile.Version)

	if profile.IsDev() && profile.DSN != "" {
		fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
	if profile.IsBotEnabled() {
		fmt.Printf("Telegram bot enabled, %d allowed user(s)\n", len(profile.AllowedUserIDs))
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
