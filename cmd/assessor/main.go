package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/everesteng/assessor/internal/feedback"
	"github.com/everesteng/assessor/internal/handler"
	appI18n "github.com/everesteng/assessor/internal/i18n"
	"github.com/everesteng/assessor/internal/model"
	"github.com/everesteng/assessor/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "assessor",
		Short: "Employee skill assessment server with AI-generated feedback",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `assessor --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP assessment server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "assessor.db", "SQLite database path")
	f.StringSliceP("questions", "q", []string{"questions/excel_intermediate_pt.json"}, "Paths to questions JSON files (repeatable)")
	f.String("openai-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.String("openai-key", "", "API key for feedback generation (or set ASSESSOR_OPENAI_KEY)")
	f.String("openai-model", "gpt-4.1-mini", "Model name for feedback generation")
	f.StringP("lang", "l", "pt-BR", "Default message language (pt-BR, en)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set ASSESSOR_ADMIN_PASSWORD)")
	f.String("test-title", "Avaliação Excel Nível Intermediário", "Assessment title shown to test takers")
	f.String("test-description", "Teste de conhecimentos em Excel abordando estruturação de dados, fórmulas, funções de texto, tabelas dinâmicas e dashboards.", "Assessment description shown to test takers")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assessment results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "assessor.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ASSESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("assessor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/assessor")
	v.AddConfigPath("/etc/assessor")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdminPassword(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}

	if err := seedTestInfo(db, v.GetString("test-title"), v.GetString("test-description")); err != nil {
		return fmt.Errorf("seed test info: %w", err)
	}

	if err := loadQuestions(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// The feedback client is optional. Without a key the server still runs;
	// only feedback generation requests fail, with a configuration error.
	var fb *feedback.Client
	if key := v.GetString("openai-key"); key != "" {
		fb, err = feedback.New(v.GetString("openai-url"), key, v.GetString("openai-model"))
		if err != nil {
			return fmt.Errorf("create feedback client: %w", err)
		}
		slog.Info("feedback generation enabled", "url", v.GetString("openai-url"), "model", v.GetString("openai-model"))
	} else {
		slog.Warn("no API key configured, feedback generation disabled")
	}

	cfg := model.AppConfig{
		DefaultLang:   lang,
		SecureCookies: v.GetBool("secure-cookies"),
	}
	h := handler.New(db, fb, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"secure_cookies", cfg.SecureCookies,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	info, err := db.GetTestInfo()
	if err != nil {
		return fmt.Errorf("read test info: %w", err)
	}
	count, err := db.QuestionCount()
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	results, err := db.ExportAllSubmissions()
	if err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}

	export := model.AssessmentExport{
		Title:        info.Title,
		Description:  info.Description,
		GeneratedAt:  time.Now(),
		NumQuestions: count,
		Results:      results,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadQuestions(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to avoid breaking existing submissions",
				"path", path)
			continue
		}

		var questions []model.QuestionImport
		if err := json.Unmarshal(data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, qi := range questions {
			_, err := db.InsertQuestion(model.Question{
				Text:          qi.Text,
				Options:       qi.Options,
				CorrectAnswer: qi.CorrectAnswer,
				Category:      qi.Category,
			})
			if err != nil {
				return fmt.Errorf("insert question from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported questions", "path", path, "count", len(questions))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// seedAdminPassword stores the bcrypt hash of the shared admin password on
// first start. An already-seeded database keeps its password unless a new
// one is passed explicitly.
func seedAdminPassword(db *store.Store, password string) error {
	existing, err := db.GetAdminPasswordHash()
	if err != nil {
		return err
	}
	if password == "" {
		if existing != "" {
			return nil
		}
		return fmt.Errorf("admin password is required: set --admin-password flag or ASSESSOR_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := db.SetAdminPasswordHash(string(hash)); err != nil {
		return err
	}
	slog.Info("admin password set")
	return nil
}

// seedTestInfo writes the title and description only when none are stored,
// so values edited in the database survive restarts with default flags.
func seedTestInfo(db *store.Store, title, description string) error {
	info, err := db.GetTestInfo()
	if err != nil {
		return err
	}
	if info.Title != "" {
		return nil
	}
	return db.SetTestInfo(model.TestInfo{Title: title, Description: description})
}
