package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/minegate/minegate-node/cmd/gateway/config"
)

// Build information. Overridden at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "gateway",
		Short: "Minegate protocol gateway",
		Long: banner + "\n\nA Minecraft Java-edition protocol gateway: accepts client connections," +
			"\nruns the handshake, status, and login ceremonies, and hands verified" +
			"\nplay sessions to the embedding application.",
		RunE:          runApp,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}
)

const banner = `
███╗   ███╗██╗███╗   ██╗███████╗ ██████╗  █████╗ ████████╗███████╗
████╗ ████║██║████╗  ██║██╔════╝██╔════╝ ██╔══██╗╚══██╔══╝██╔════╝
██╔████╔██║██║██╔██╗ ██║█████╗  ██║  ███╗███████║   ██║   █████╗
██║╚██╔╝██║██║██║╚██╗██║██╔══╝  ██║   ██║██╔══██║   ██║   ██╔══╝
██║ ╚═╝ ██║██║██║ ╚████║███████╗╚██████╔╝██║  ██║   ██║   ███████╗
╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚══════╝`

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()
	return rootCmd.Execute()
}

func initCommands() {
	cobra.OnInitialize(initConfig)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// Server flags
	rootCmd.PersistentFlags().String("listen-addr", "", "protocol listen address")
	rootCmd.PersistentFlags().Bool("online-mode", true, "verify logins against the session service")
	rootCmd.PersistentFlags().Int("compression-threshold", 0, "packet size that triggers compression, -1 disables")
	rootCmd.PersistentFlags().String("key", "", "server RSA key file (PEM, generated when absent)")
	rootCmd.PersistentFlags().String("motd", "", "status description line")
	rootCmd.PersistentFlags().Int("max-players", 0, "player capacity reported in status")

	// Session flags
	rootCmd.PersistentFlags().String("session-url", "", "session service base URL")
	rootCmd.PersistentFlags().String("account-url", "", "account API base URL")
	rootCmd.PersistentFlags().String("services-url", "", "services API base URL")

	// Cache flags
	rootCmd.PersistentFlags().String("cache-path", "", "profile cache sqlite file")

	// Ops flags
	rootCmd.PersistentFlags().String("api-addr", "", "ops HTTP API listen address")
	rootCmd.PersistentFlags().Bool("metrics", true, "enable prometheus metrics")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = os.Getenv("MINEGATE_CONFIG")
	}
}

func runApp(cmd *cobra.Command, _ []string) error {
	fmt.Println(banner)
	fmt.Println()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)

	log := newLogger(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	log.Info().
		Str("config_file", cfgFile).
		Str("listen_addr", cfg.Server.ListenAddr).
		Bool("online_mode", cfg.Server.OnlineMode).
		Bool("api_enabled", cfg.API.Enabled).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(cmd.Context())
}

func runVersion(*cobra.Command, []string) {
	fmt.Println(banner)
	fmt.Println()
	fmt.Printf("Minegate Gateway\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flag("log-level").Changed {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flag("log-pretty").Changed {
		cfg.Log.Pretty, _ = cmd.Flags().GetBool("log-pretty")
	}

	if cmd.Flag("listen-addr").Changed {
		cfg.Server.ListenAddr, _ = cmd.Flags().GetString("listen-addr")
	}
	if cmd.Flag("online-mode").Changed {
		cfg.Server.OnlineMode, _ = cmd.Flags().GetBool("online-mode")
	}
	if cmd.Flag("compression-threshold").Changed {
		cfg.Server.CompressionThreshold, _ = cmd.Flags().GetInt("compression-threshold")
	}
	if cmd.Flag("key").Changed {
		cfg.Server.KeyPath, _ = cmd.Flags().GetString("key")
	}
	if cmd.Flag("motd").Changed {
		cfg.Server.MOTD, _ = cmd.Flags().GetString("motd")
	}
	if cmd.Flag("max-players").Changed {
		cfg.Server.MaxPlayers, _ = cmd.Flags().GetInt("max-players")
	}

	if cmd.Flag("session-url").Changed {
		cfg.Session.SessionURL, _ = cmd.Flags().GetString("session-url")
	}
	if cmd.Flag("account-url").Changed {
		cfg.Session.AccountURL, _ = cmd.Flags().GetString("account-url")
	}
	if cmd.Flag("services-url").Changed {
		cfg.Session.ServicesURL, _ = cmd.Flags().GetString("services-url")
	}

	if cmd.Flag("cache-path").Changed {
		cfg.Cache.Path, _ = cmd.Flags().GetString("cache-path")
	}

	if cmd.Flag("api-addr").Changed {
		cfg.API.ListenAddr, _ = cmd.Flags().GetString("api-addr")
	}
	if cmd.Flag("metrics").Changed {
		cfg.Metrics.Enabled, _ = cmd.Flags().GetBool("metrics")
	}
}

func newLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
