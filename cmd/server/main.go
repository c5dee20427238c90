package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/async"
	"github.com/toolgrid/toolgrid/internal/cache/memory"
	"github.com/toolgrid/toolgrid/internal/config"
	"github.com/toolgrid/toolgrid/internal/jobs"
	"github.com/toolgrid/toolgrid/internal/logger"
	"github.com/toolgrid/toolgrid/internal/repository"
	"github.com/toolgrid/toolgrid/internal/repository/postgres"
	"github.com/toolgrid/toolgrid/internal/repository/sqlite"
	"github.com/toolgrid/toolgrid/internal/service"
	"github.com/toolgrid/toolgrid/internal/telemetry"
	"github.com/toolgrid/toolgrid/internal/transport/client"
	httpTransport "github.com/toolgrid/toolgrid/internal/transport/http"
)

const asyncQueueSize = 1024

var rootCmd = &cobra.Command{
	Use:   "toolgrid",
	Short: "A directory of AI and engineering tools",
	Long:  "A tool catalog API with duplicate website detection, backed by Postgres or SQLite",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the catalog API server",
	RunE:  runServer,
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for interacting with the server",
}

var checkCmd = &cobra.Command{
	Use:   "check [URL]",
	Short: "Check whether a website is already listed",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var getCmd = &cobra.Command{
	Use:   "get [TOOL_ID]",
	Short: "Get information about a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published tools",
	RunE:  runList,
}

var submitCmd = &cobra.Command{
	Use:   "submit [NAME] [URL]",
	Short: "Submit a new tool for review",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubmit,
}

func init() {
	// Server command flags; environment variables take precedence
	serverCmd.Flags().StringP("port", "p", "8080", "Server port")
	serverCmd.Flags().String("server-url", "http://localhost:8080", "Server URL (for client communication)")
	serverCmd.Flags().String("db-driver", config.DriverSQLite, "Database driver (postgres or sqlite)")
	serverCmd.Flags().String("db-dsn", "toolgrid.db", "Database DSN (connection string or SQLite file path)")
	serverCmd.Flags().Duration("cache-ttl", time.Hour, "Duplicate cache TTL")
	serverCmd.Flags().Float64("rate-rps", 50, "Rate limit requests per second")
	serverCmd.Flags().Int("rate-burst", 100, "Rate limit burst size")
	serverCmd.Flags().String("environment", "development", "Runtime environment (development or production)")
	serverCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	// Client command flags
	clientCmd.PersistentFlags().StringP("server-url", "u", "http://localhost:8080", "Server URL")
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("per-page", 20, "Tools per page")
	listCmd.Flags().String("category", "", "Filter by category")
	submitCmd.Flags().String("tagline", "", "Short tool description")
	submitCmd.Flags().StringSlice("categories", nil, "Comma-separated category names")

	clientCmd.AddCommand(checkCmd, getCmd, listCmd, submitCmd)
	rootCmd.AddCommand(serverCmd, clientCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	port, _ := cmd.Flags().GetString("port")
	serverURL, _ := cmd.Flags().GetString("server-url")
	driver, _ := cmd.Flags().GetString("db-driver")
	dsn, _ := cmd.Flags().GetString("db-dsn")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
	rps, _ := cmd.Flags().GetFloat64("rate-rps")
	burst, _ := cmd.Flags().GetInt("rate-burst")
	environment, _ := cmd.Flags().GetString("environment")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.New(port, serverURL, driver, dsn, cacheTTL, rps, burst, environment, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	zlog, err := logger.NewLogger(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zlog.Sync()

	zlog.Info("starting server",
		zap.String("port", cfg.Server.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	store, err := openStore(cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Error("error closing store", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics()

	writer := async.NewWriter(asyncQueueSize, zlog, metrics.CountDroppedTask)
	defer func() {
		if err := writer.Close(); err != nil {
			zlog.Error("error draining async writer", zap.Error(err))
		}
	}()

	localCache := memory.New()
	defer localCache.Close()

	duplicates := service.NewDuplicateChecker(store, localCache, writer, metrics, zlog, cfg.Cache.TTL)
	catalog := service.NewCatalog(store, localCache, writer, zlog, cfg.Cache.TTL)

	sweeper := jobs.NewSweeper(store, zlog)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance jobs: %w", err)
	}
	defer sweeper.Stop()

	server := httpTransport.NewServer(cfg, duplicates, catalog, metrics, zlog)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		zlog.Info("received signal, shutting down", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error("error during server shutdown", zap.Error(err))
		}
	}

	zlog.Info("server stopped")
	return nil
}

// openStore builds the repository for the configured driver
func openStore(cfg *config.Config, zlog *zap.Logger) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return postgres.New(cfg.Database.DSN, true, zlog)
	case config.DriverSQLite:
		return sqlite.New(cfg.Database.DSN, zlog)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}

func clientCommands(cmd *cobra.Command) (*client.Commands, context.Context, context.CancelFunc) {
	serverURL, _ := cmd.Flags().GetString("server-url")
	commands := client.NewCommands(client.NewClient(serverURL))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	return commands, ctx, cancel
}

func runCheck(cmd *cobra.Command, args []string) error {
	commands, ctx, cancel := clientCommands(cmd)
	defer cancel()

	return commands.Check(ctx, args[0])
}

func runGet(cmd *cobra.Command, args []string) error {
	commands, ctx, cancel := clientCommands(cmd)
	defer cancel()

	return commands.Get(ctx, args[0])
}

func runList(cmd *cobra.Command, args []string) error {
	commands, ctx, cancel := clientCommands(cmd)
	defer cancel()

	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	category, _ := cmd.Flags().GetString("category")

	return commands.List(ctx, page, perPage, category)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	commands, ctx, cancel := clientCommands(cmd)
	defer cancel()

	tagline, _ := cmd.Flags().GetString("tagline")
	categories, _ := cmd.Flags().GetStringSlice("categories")

	name := strings.TrimSpace(args[0])
	return commands.Submit(ctx, name, args[1], tagline, categories)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
