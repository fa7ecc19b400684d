package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/logging"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/server"
	"github.com/Tomlord1122/todo-api/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, timeout time.Duration, logger *log.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctxTimeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			logger.Error("closing database connection pool", "err", err)
		} else {
			logger.Info("database connection pool closed")
		}
	}

	logger.Info("server exiting")
	done <- true
}

// openStore returns the repository selected by cfg.StoreBackend. dbService is
// nil for the memory backend.
func openStore(cfg *config.Config, logger *log.Logger) (repository.TodoRepository, server.HealthChecker, database.Service, error) {
	if cfg.StoreBackend == config.BackendMemory {
		repo := repository.NewMemoryTodoRepository()
		return repo, repo, nil, nil
	}

	dbService, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("running database auto-migration")
	if err := dbService.Migrate(); err != nil {
		_ = dbService.Close()
		return nil, nil, nil, err
	}
	return repository.NewGormTodoRepository(dbService.GetDB()), dbService, dbService, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("TODO_CONFIG_FILE"))
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		log.Fatal("configure logging", "err", err)
	}

	todoRepo, health, dbService, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", "backend", cfg.StoreBackend, "err", err)
	}

	todoService := service.NewTodoService(todoRepo, logger)
	apiServer := server.NewServer(cfg, todoService, health, logger)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, cfg.ShutdownTimeout, logger, done)

	logger.Info("starting server", "addr", apiServer.Addr, "backend", cfg.StoreBackend)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server ListenAndServe", "err", err)
	}

	<-done
	logger.Info("graceful shutdown complete")
}
