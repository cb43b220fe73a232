// ABOUTME: AWS Lambda entrypoint serving API Gateway proxy events
// ABOUTME: Picks one handler by TODO_HANDLER or _HANDLER and hands it to the runtime

package main

import (
	"fmt"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	lambdapkg "github.com/2389/todo-gateway/internal/lambda"
)

// handlerName returns the configured handler. The provided.al2 runtime sets
// _HANDLER to the function's handler string, usually "bootstrap".
func handlerName() string {
	if name := os.Getenv("TODO_HANDLER"); name != "" {
		return name
	}
	return os.Getenv("_HANDLER")
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	handlers := lambdapkg.NewFromEnv(logger)
	handler, err := handlers.ByName(handlerName())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting lambda handler", "handler", handlerName())
	awslambda.Start(handler)
}
