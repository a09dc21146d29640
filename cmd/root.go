package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/config"
	"github.com/abhisek/mathquest/internal/store"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// cfg is loaded once in PersistentPreRunE and shared by every command.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:     "mathquest",
	Short:   "Math practice for kids",
	Long:    "mathquest runs adaptive math practice sessions, tracks XP and streaks, and hosts two-player challenges.",
	Version: version,

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MATHQUEST_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides MATHQUEST_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(llmCmd)
}

// setup loads .env, the config file and the environment, then installs the
// default logger. serve logs JSON to stderr. Session screens log text to a
// file beside the database; other commands log text to stderr.
func setup(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		loaded.LogLevel = lvl
	}
	level, err := config.ParseLogLevel(loaded.LogLevel)
	if err != nil {
		return err
	}
	cfg = loaded

	var out io.Writer = os.Stderr
	if cmd == playCmd || cmd == challengeJoinCmd {
		// The session screen owns the terminal.
		if f, err := openLogFile(cmd); err == nil {
			out = f
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cmd == serveCmd {
		handler = slog.NewJSONHandler(out, opts)
	} else if !cmd.Flags().Changed("log-level") && os.Getenv("MATHQUEST_LOG_LEVEL") == "" {
		// Keep interactive output clean unless asked.
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelWarn})
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// openLogFile opens mathquest.log next to the database for appending.
func openLogFile(cmd *cobra.Command) (*os.File, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(filepath.Dir(dbPath), "mathquest.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// resolveDBPath returns the database path using --db (highest priority),
// then the loaded config, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
