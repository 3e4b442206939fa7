package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tuxx/shimmerlock/internal/config"
	"github.com/tuxx/shimmerlock/internal/display"
	"github.com/tuxx/shimmerlock/internal/locker"
	"github.com/tuxx/shimmerlock/internal/logger"
	"github.com/tuxx/shimmerlock/internal/logind"
	"github.com/tuxx/shimmerlock/internal/render"
	"github.com/tuxx/shimmerlock/internal/wayland"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "shimmerlock",
		Short: "Lock the Wayland session",
		Long: `shimmerlock locks the session through ext-session-lock-v1 and draws an
animated gradient on every output until the unlock key is pressed.

Killing the process does not unlock the session: the compositor keeps the
outputs locked until a new locker takes over.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runLock,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default searches /etc/shimmerlock, ~/.config/shimmerlock and .)")
	flags.Uint32("unlock-key", config.DefaultConfig.Lock.UnlockKey, "raw evdev key code that unlocks the session")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("lock.unlock_key", flags.Lookup("unlock-key"))
	_ = viper.BindPFlag("logging.log_level", flags.Lookup("log-level"))
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}
	if level := config.Get().Logging.LogLevel; level != "" {
		logger.SetLevel(level)
	}
	return nil
}

func runLock(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	effect, err := render.NewGradient(cfg.Effect.TopColor, cfg.Effect.BottomColor, cfg.Effect.Period())
	if err != nil {
		return fmt.Errorf("effect: %w", err)
	}

	conn, err := wayland.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	var hinter locker.Hinter
	if cfg.Logind.LockedHint {
		session, err := logind.Connect(os.Getenv("XDG_SESSION_ID"))
		if err != nil {
			logger.Warn("logind unavailable, locked hint disabled", "err", err)
		} else {
			defer session.Close()
			hinter = session
		}
	}

	logger.Info("locking session", "unlock_key", cfg.Lock.UnlockKey)
	l := locker.New(conn, locker.Config{
		UnlockKey: cfg.Lock.UnlockKey,
		Renderers: func(shm display.Shm) render.Factory {
			return &render.ShmFactory{Shm: shm, Effect: effect}
		},
		Hinter: hinter,
	})
	return l.Run()
}
