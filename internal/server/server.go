package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// HealthChecker reports the state of the store backing the service. Both
// database.Service and repository.MemoryTodoRepository satisfy it.
type HealthChecker interface {
	Health() map[string]string
}

// Server holds the dependencies shared by the HTTP handlers. The todo store
// itself is reached only through todoService.
type Server struct {
	todoService service.TodoService
	health      HealthChecker
	logger      *log.Logger
}

// New wires the handlers without binding a listener; tests serve
// RegisterRoutes through httptest.
func New(todoService service.TodoService, health HealthChecker, logger *log.Logger) *Server {
	return &Server{
		todoService: todoService,
		health:      health,
		logger:      logger.WithPrefix("http"),
	}
}

// NewServer returns the http.Server listening on cfg.Addr().
func NewServer(cfg *config.Config, todoService service.TodoService, health HealthChecker, logger *log.Logger) *http.Server {
	appServer := New(todoService, health, logger)

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}
}
