// ABOUTME: HTTP handlers for the /todos API
// ABOUTME: Decode the request, call the todo service, and map results through transport

package gateway

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/2389/todo-gateway/internal/store"
	"github.com/2389/todo-gateway/internal/todo"
	"github.com/2389/todo-gateway/internal/transport"
)

// sendError logs unexpected failures and writes the mapped error response.
func (g *Gateway) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := transport.StatusFor(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	transport.WriteError(w, err)
}

func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	if err := transport.WriteJSON(w, status, v); err != nil {
		g.logger.Error("failed to write response", "error", err)
	}
}

// handleCreateTodo handles POST /todos. A request carrying an
// Idempotency-Key gets the response of the first request with that key.
func (g *Gateway) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(headerIdempotencyKey)
	if key == "" {
		item, err := g.createTodo(r.Context(), r)
		if err != nil {
			g.sendError(w, r, err)
			return
		}
		g.sendJSON(w, http.StatusCreated, item)
		return
	}

	// Other requests with this key wait on the result, so the first caller
	// hanging up must not cancel it.
	shared := context.WithoutCancel(r.Context())
	body, replayed, err := g.creates.Do(key, func() ([]byte, error) {
		item, err := g.createTodo(shared, r)
		if err != nil {
			return nil, err
		}
		return transport.Marshal(item)
	})
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	if replayed {
		w.Header().Set(headerIdempotentReplayed, "true")
		g.logger.Debug("replayed create", "idempotency_key", key)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(body); err != nil {
		g.logger.Error("failed to write response", "error", err)
	}
}

const (
	headerIdempotencyKey     = "Idempotency-Key"
	headerIdempotentReplayed = "Idempotent-Replayed"
)

func (g *Gateway) createTodo(ctx context.Context, r *http.Request) (*store.Item, error) {
	in, err := todo.DecodeCreate(r.Body)
	if err != nil {
		return nil, err
	}
	return g.todos.Create(ctx, in)
}

// handleListTodos handles GET /todos, newest first.
func (g *Gateway) handleListTodos(w http.ResponseWriter, r *http.Request) {
	items, err := g.todos.List(r.Context())
	if err != nil {
		g.sendError(w, r, err)
		return
	}
	g.sendJSON(w, http.StatusOK, items)
}

// handleGetTodo handles GET /todos/{todoId}.
func (g *Gateway) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	item, err := g.todos.Get(r.Context(), mux.Vars(r)["todoId"])
	if err != nil {
		g.sendError(w, r, err)
		return
	}
	g.sendJSON(w, http.StatusOK, item)
}

// handleUpdateTodo handles PUT /todos/{todoId}. The body is validated before
// the item is looked up.
func (g *Gateway) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	in, err := todo.DecodeUpdate(r.Body)
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	item, err := g.todos.Update(r.Context(), mux.Vars(r)["todoId"], in)
	if err != nil {
		g.sendError(w, r, err)
		return
	}
	g.sendJSON(w, http.StatusOK, item)
}

// handleDeleteTodo handles DELETE /todos/{todoId}.
func (g *Gateway) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := g.todos.Delete(r.Context(), mux.Vars(r)["todoId"]); err != nil {
		g.sendError(w, r, err)
		return
	}
	g.sendJSON(w, http.StatusOK, transport.MessageBody{Message: transport.MsgDeleted})
}
