package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hpatkar/verdeiq/internal/api"
	"github.com/hpatkar/verdeiq/internal/assess"
	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/cohere"
	"github.com/hpatkar/verdeiq/internal/config"
	"github.com/hpatkar/verdeiq/internal/profile"
	"github.com/hpatkar/verdeiq/internal/roadmap"
	"github.com/hpatkar/verdeiq/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the verdeiq server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running verdeiq server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show verdeiq system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "verdeiq.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// loadBank resolves the question bank and weight table: a configured path
// wins, otherwise the embedded defaults apply. A malformed bank is fatal.
func loadBank(cfg config.Config) (*bank.Bank, bank.WeightTable, error) {
	var b *bank.Bank
	var err error
	if cfg.Bank.Path != "" {
		b, err = bank.LoadFile(cfg.Bank.Path)
	} else {
		b, err = bank.Default()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading question bank: %w", err)
	}

	var weights bank.WeightTable
	if cfg.Bank.WeightsPath != "" {
		weights, err = bank.LoadWeightsFile(cfg.Bank.WeightsPath)
	} else {
		weights, err = bank.DefaultWeights()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading weight table: %w", err)
	}

	return b, weights, nil
}

func narrativeTimeout(cfg config.Config) time.Duration {
	d, err := time.ParseDuration(cfg.Narrative.Timeout)
	if err != nil || d <= 0 {
		slog.Warn("invalid narrative timeout, using default 60s", "value", cfg.Narrative.Timeout)
		return 60 * time.Second
	}
	return d
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "verdeiq version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("verdeiq is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("verdeiq is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load and validate the question bank before anything else.
	b, weights, err := loadBank(cfg)
	if err != nil {
		return err
	}
	slog.Info("question bank loaded", "questions", b.Len(), "sectors", len(weights.Sectors()))

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Narrative generation degrades to a warning without an API key.
	if cfg.Cohere.APIKey == "" {
		slog.Warn("VERDEIQ_COHERE_API_KEY is not set; roadmap narratives will be unavailable")
	}
	chatClient := cohere.NewWithBaseURL(cfg.Cohere.APIKey, cfg.Cohere.Model, cfg.Cohere.BaseURL)
	generator := roadmap.NewGenerator(chatClient)

	profileMgr := profile.NewManager(store)
	svc := assess.New(b, weights, store, profileMgr, generator, narrativeTimeout(cfg))

	appHandler := api.NewAppHandler(api.AppDeps{
		Assess:  svc,
		Store:   store,
		Profile: profileMgr,
		Token:   cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Assess: svc,
		Store:  store,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "verdeiq listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("verdeiq is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop verdeiq (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to verdeiq (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Cohere.APIKey == "" {
		printStatus("Narrative", "disabled (VERDEIQ_COHERE_API_KEY not set)")
	} else {
		printStatus("Narrative", "enabled (%s)", cfg.Cohere.Model)
	}

	// Show assessment count if server is running.
	if running {
		if client, err := newAPIClient(); err == nil {
			listResp, err := client.get(ctx, "/assessments?limit=100")
			if err == nil {
				var assessments []struct {
					ID string `json:"id"`
				}
				if decodeJSON(listResp, &assessments) == nil {
					printStatus("Assessments", "%s", countLabel(len(assessments), 100))
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
