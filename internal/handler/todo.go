package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/toumakido/my-claude/todod/internal/model"
	"github.com/toumakido/my-claude/todod/internal/store"
)

const maxBodyBytes = 1 << 20

// Options tune a TodoHandler.
type Options struct {
	// BasePath is prepended to /todos, e.g. "/api".
	BasePath string
	// StoreTimeout bounds the store calls of one request. Zero means no bound.
	StoreTimeout time.Duration
	Logger       *slog.Logger
}

// TodoHandler handles HTTP requests for todos
type TodoHandler struct {
	store   store.Store
	ids     store.Sequence
	prefix  string
	timeout time.Duration
	log     *slog.Logger
}

// NewTodoHandler creates a new TodoHandler
func NewTodoHandler(s store.Store, ids store.Sequence, opts Options) *TodoHandler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &TodoHandler{
		store:   s,
		ids:     ids,
		prefix:  Prefix(opts.BasePath),
		timeout: opts.StoreTimeout,
		log:     opts.Logger,
	}
}

// Prefix returns the collection path for basePath.
func Prefix(basePath string) string {
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return "/todos"
	}
	return "/" + basePath + "/todos"
}

// Register mounts the handler, wrapped in CORS, on mux.
func (h *TodoHandler) Register(mux *http.ServeMux) {
	hh := WithCORS(h)
	mux.Handle(h.prefix, hh)
	mux.Handle(h.prefix+"/", hh)
}

// ServeHTTP implements http.Handler
func (h *TodoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, ok := strings.CutPrefix(r.URL.Path, h.prefix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// /todos
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGetAll(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodDelete:
			h.handleDeleteAll(w, r)
		default:
			methodNotAllowed(w, "GET, POST, DELETE")
		}
		return
	}

	// /todos/{id}
	id, ok := strings.CutPrefix(path, "/")
	if !ok || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleGetOne(w, r, id)
	case http.MethodPatch:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDeleteOne(w, r, id)
	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

func (h *TodoHandler) handleGetOne(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		h.fail(w, r, errMissingID)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	todo, found, err := h.store.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		h.fail(w, r, fmt.Errorf("%w: %s", ErrNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	todos, err := h.store.GetAll(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	todo, err := decodeTodo(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	id, err := h.ids.Assign(ctx, todo.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	todo.ID = id
	todo.URL = h.itemURL(r, id)

	if err := h.store.Put(ctx, strconv.Itoa(id), todo); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Debug("created", "id", id)
	respondJSON(w, http.StatusCreated, todo)
}

// handleUpdate merges the request body into the stored record. The read and
// the write are separate store calls; a concurrent write in between is lost.
func (h *TodoHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		h.fail(w, r, errMissingID)
		return
	}
	patch, err := decodeTodo(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	old, found, err := h.store.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		h.fail(w, r, fmt.Errorf("%w: %s", ErrNotFound, id))
		return
	}

	merged := model.Merge(old, patch)
	if err := h.store.Put(ctx, id, merged); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, merged)
}

func (h *TodoHandler) handleDeleteOne(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	if err := h.store.Delete(ctx, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	if err := h.store.DeleteAll(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *TodoHandler) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// itemURL is the absolute URI of the collection followed by /id.
func (h *TodoHandler) itemURL(r *http.Request, id int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s/%d", scheme, r.Host, h.prefix, id)
}

func decodeTodo(w http.ResponseWriter, r *http.Request) (model.Todo, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return model.Todo{}, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	var todo model.Todo
	if err := json.Unmarshal(b, &todo); err != nil {
		return model.Todo{}, fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	return todo, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
