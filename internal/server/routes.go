package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/service"
)

const (
	welcomeMessage  = "欢迎使用 Todo API! 请访问 /docs 查看文档。"
	notFoundMessage = "未找到该待办事项"
)

//go:embed openapi.json
var openAPIDocument []byte

// docsPage renders openapi.json with Swagger UI loaded from a CDN.
//
//go:embed docs.html
var docsPage []byte

// RegisterRoutes builds the chi router: request ID, access logging and panic
// recovery middleware, the CORS policy for browser clients, and the /todo
// CRUD routes. Unknown paths and methods answer with the same {"detail": ...}
// body as every other error.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", s.welcomeHandler)
	r.Get("/docs", s.docsHandler)
	r.Get("/openapi.json", s.openAPIHandler)
	r.Get("/health", s.healthHandler)

	r.Route("/todo", func(r chi.Router) {
		r.Get("/", s.listTodosHandler)
		r.Post("/", s.createTodoHandler)
		r.Get("/{id}", s.getTodoHandler)
		r.Put("/{id}", s.updateTodoHandler)
		r.Delete("/{id}", s.deleteTodoHandler)
	})

	return r
}

func (s *Server) welcomeHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsPage)
}

func (s *Server) openAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

// healthHandler answers 503 when the backing store reports itself down.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.health.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip", service.DefaultSkip)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", service.DefaultLimit)
	if !ok {
		return
	}

	todos, err := s.todoService.ListTodos(r.Context(), skip, limit)
	if err != nil {
		s.logger.Error("list todos", "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve todos")
		return
	}

	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := s.todoService.GetTodoByID(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, err, "Failed to retrieve todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTodoCreate(w, r)
	if err != nil {
		s.respondWithDecodeError(w, err)
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, err, "Failed to create todo")
		return
	}

	respondWithJSON(w, http.StatusCreated, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	req, err := decodeTodoCreate(w, r)
	if err != nil {
		s.respondWithDecodeError(w, err)
		return
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		s.respondWithServiceError(w, err, "Failed to update todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	resp, err := s.todoService.DeleteTodo(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, err, "Failed to delete todo")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// todoID parses the {id} path parameter, answering 422 itself when it is not
// an integer.
func todoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Todo ID must be an integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, falling back to def
// when it is absent and answering 422 when it does not parse.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Query parameter %q must be an integer", name))
		return 0, false
	}
	return v, true
}

// respondWithServiceError maps domain.ErrTodoNotFound to 404. Anything else
// is logged and reported as a 500 carrying fallback as the detail.
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrTodoNotFound) {
		respondWithError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	s.logger.Error(fallback, "err", err)
	respondWithError(w, http.StatusInternalServerError, fallback)
}

func (s *Server) respondWithDecodeError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		respondWithError(w, reqErr.status, reqErr.msg)
		return
	}
	s.logger.Error("decode request body", "err", err)
	respondWithError(w, http.StatusInternalServerError, "Error processing request")
}

// respondWithError writes the {"detail": message} error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"detail": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
