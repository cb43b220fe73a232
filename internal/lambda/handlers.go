// ABOUTME: API Gateway proxy handlers for create, list, get, update, and delete
// ABOUTME: Lazily builds the todo service and retries the build after a failure

package lambda

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"

	"github.com/2389/todo-gateway/internal/config"
	"github.com/2389/todo-gateway/internal/store"
	"github.com/2389/todo-gateway/internal/todo"
	"github.com/2389/todo-gateway/internal/transport"
)

// Handler is the signature aws-lambda-go invokes for API Gateway proxy events.
type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// ServiceFactory builds the todo service on first use.
type ServiceFactory func(ctx context.Context) (*todo.Service, error)

// Handlers holds the lazily constructed service shared by every handler.
type Handlers struct {
	factory ServiceFactory
	logger  *slog.Logger

	mu  sync.Mutex
	svc *todo.Service // nil until a build succeeds
}

// New creates Handlers that build their service with factory.
func New(factory ServiceFactory, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		factory: factory,
		logger:  logger.With("component", "lambda"),
	}
}

// NewFromEnv creates Handlers backed by DynamoDB, configured from TABLE_NAME
// and the AWS_* variables.
func NewFromEnv(logger *slog.Logger) *Handlers {
	return New(func(ctx context.Context) (*todo.Service, error) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, err
		}
		conn := config.ResolveDynamoConnection(cfg.DynamoDB)
		st, err := store.NewDynamoStore(ctx, store.DynamoOptions{
			Table:    conn.Table,
			Region:   conn.Region,
			Endpoint: conn.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return todo.New(st, todo.WithOptimisticUpdates(cfg.Store.OptimisticUpdates)), nil
	}, logger)
}

// service returns the shared service, building it on first use. Only a
// successful build is kept; after a failure the next invocation tries again.
func (h *Handlers) service(ctx context.Context) (*todo.Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.svc != nil {
		return h.svc, nil
	}
	svc, err := h.factory(ctx)
	if err != nil {
		h.logger.Error("failed to initialize todo service", "error", err)
		return nil, err
	}
	h.svc = svc
	return svc, nil
}

func jsonResponse(status int, body []byte) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func (h *Handlers) ok(status int, v any) events.APIGatewayProxyResponse {
	body, err := transport.Marshal(v)
	if err != nil {
		return h.fail("encode", err)
	}
	return jsonResponse(status, body)
}

func (h *Handlers) fail(op string, err error) events.APIGatewayProxyResponse {
	status, body := transport.ErrorPayload(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
	}
	return jsonResponse(status, body)
}

// requestBody returns the decoded body, undoing API Gateway's base64
// encoding of binary payloads.
func requestBody(req events.APIGatewayProxyRequest) (*strings.Reader, error) {
	if !req.IsBase64Encoded {
		return strings.NewReader(req.Body), nil
	}
	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64", todo.ErrValidation)
	}
	return strings.NewReader(string(raw)), nil
}

// Create handles POST /todos.
func (h *Handlers) Create(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, err := h.service(ctx)
	if err != nil {
		return h.fail("init", err), nil
	}
	body, err := requestBody(req)
	if err != nil {
		return h.fail("create", err), nil
	}
	in, err := todo.DecodeCreate(body)
	if err != nil {
		return h.fail("create", err), nil
	}
	item, err := svc.Create(ctx, in)
	if err != nil {
		return h.fail("create", err), nil
	}
	return h.ok(http.StatusCreated, item), nil
}

// GetAll handles GET /todos.
func (h *Handlers) GetAll(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, err := h.service(ctx)
	if err != nil {
		return h.fail("init", err), nil
	}
	items, err := svc.List(ctx)
	if err != nil {
		return h.fail("list", err), nil
	}
	return h.ok(http.StatusOK, items), nil
}

// Get handles GET /todos/{todoId}.
func (h *Handlers) Get(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, err := h.service(ctx)
	if err != nil {
		return h.fail("init", err), nil
	}
	item, err := svc.Get(ctx, req.PathParameters["todoId"])
	if err != nil {
		return h.fail("get", err), nil
	}
	return h.ok(http.StatusOK, item), nil
}

// Update handles PUT /todos/{todoId}.
func (h *Handlers) Update(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, err := h.service(ctx)
	if err != nil {
		return h.fail("init", err), nil
	}
	body, err := requestBody(req)
	if err != nil {
		return h.fail("update", err), nil
	}
	in, err := todo.DecodeUpdate(body)
	if err != nil {
		return h.fail("update", err), nil
	}
	item, err := svc.Update(ctx, req.PathParameters["todoId"], in)
	if err != nil {
		return h.fail("update", err), nil
	}
	return h.ok(http.StatusOK, item), nil
}

// Delete handles DELETE /todos/{todoId}.
func (h *Handlers) Delete(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, err := h.service(ctx)
	if err != nil {
		return h.fail("init", err), nil
	}
	if err := svc.Delete(ctx, req.PathParameters["todoId"]); err != nil {
		return h.fail("delete", err), nil
	}
	return jsonResponse(http.StatusOK, transport.DeletedPayload()), nil
}

// Route dispatches on method and whether a todoId path parameter is present.
func (h *Handlers) Route(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	_, hasID := req.PathParameters["todoId"]
	switch {
	case req.HTTPMethod == http.MethodPost && !hasID:
		return h.Create(ctx, req)
	case req.HTTPMethod == http.MethodGet && !hasID:
		return h.GetAll(ctx, req)
	case req.HTTPMethod == http.MethodGet:
		return h.Get(ctx, req)
	case req.HTTPMethod == http.MethodPut && hasID:
		return h.Update(ctx, req)
	case req.HTTPMethod == http.MethodDelete && hasID:
		return h.Delete(ctx, req)
	default:
		body, _ := transport.Marshal(transport.ErrorBody{Error: "Method not allowed."})
		return jsonResponse(http.StatusMethodNotAllowed, body), nil
	}
}

// ByName returns the handler registered under name. Names are matched
// case-insensitively and may carry a dotted prefix or a "TodoHandler" style
// suffix, so "create", "CreateTodoHandler" and "todo.create" all resolve.
func (h *Handlers) ByName(name string) (Handler, error) {
	key := strings.ToLower(name)
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	key = strings.TrimSuffix(key, "handler")
	key = strings.TrimSuffix(key, "todos")
	key = strings.TrimSuffix(key, "todo")

	switch key {
	case "create":
		return h.Create, nil
	case "getall", "list":
		return h.GetAll, nil
	case "get":
		return h.Get, nil
	case "update":
		return h.Update, nil
	case "delete":
		return h.Delete, nil
	case "router", "bootstrap", "":
		return h.Route, nil
	default:
		return nil, fmt.Errorf("unknown handler %q", name)
	}
}
