// ABOUTME: Entry point for the todo-gateway HTTP server
// ABOUTME: Serves the /todos API over SQLite, DynamoDB, or memory storage

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/todo-gateway/internal/client"
	"github.com/2389/todo-gateway/internal/config"
	"github.com/2389/todo-gateway/internal/gateway"
)

// version is printed by the version command and the serve banner.
// Release builds override it with -ldflags "-X main.version=<tag>".
var version = "dev"

const banner = `
  _            _                          _
 | |_ ___   __| | ___         __ _  __ _ | |_ ___
 | __/ _ \ / _' |/ _ \ _____ / _' |/ _' || __/ _ \
 | || (_) | (_| | (_) |_____| (_| | (_| || ||  __/
  \__\___/ \__,_|\___/       \__, |\__,_| \__\___|
                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: TODO_CONFIG env var > XDG_CONFIG_HOME/todo-gateway/config.yaml > ~/.config/todo-gateway/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TODO_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "todo-gateway", "config.yaml")
}

// getDataPath returns the path to the todo-gateway data directory.
// Priority: XDG_DATA_HOME/todo-gateway > ~/.local/share/todo-gateway
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "todo-gateway")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: todo-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("           (--defaults writes the default config without prompting)")
		fmt.Println("  health   Check gateway health and store readiness")
		fmt.Println("  version  Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		if len(os.Args) > 2 && os.Args[2] == "--defaults" {
			err = runInitDefaults(getConfigPath())
		} else {
			err = runInit()
		}
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file") {
			return fmt.Errorf("loading config: %w (run 'todo-gateway init' to create one)", err)
		}
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Store:     %s", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		gray.Printf(" (%s)", cfg.Database.Path)
	case config.BackendDynamoDB:
		conn := config.ResolveDynamoConnection(cfg.DynamoDB)
		gray.Printf(" (table %s)", conn.Table)
		if conn.Local {
			yellow.Printf(" [local %s]", conn.Endpoint)
		}
	}
	if cfg.Store.OptimisticUpdates {
		yellow.Print(" [optimistic]")
	}
	fmt.Println()

	// Tailscale status
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	fmt.Println()

	logger.Info("starting todo-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"backend", cfg.Store.Backend,
	)

	// Create and run gateway
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c := client.New(cfg.Server.HTTPAddr)
	if err := c.Health(ctx, false); err != nil {
		return err
	}
	if err := c.Health(ctx, true); err != nil {
		return fmt.Errorf("not ready: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

// runInitDefaults writes Default() to path, refusing to replace an existing file.
func runInitDefaults(path string) error {
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("todo-gateway configuration setup")
	fmt.Println("================================")
	fmt.Println()

	cfg := config.Default()

	// Output filename
	outputFile := prompt(reader, "Config file path", getConfigPath())

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, "File exists. Overwrite?", "no")) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	cfg.Server.HTTPAddr = prompt(reader, "HTTP address", "localhost:8080")

	// Storage
	fmt.Println("\n--- Storage Configuration ---")
	cfg.Store.Backend = prompt(reader, "Backend (sqlite/dynamodb/memory)", config.BackendSQLite)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		cfg.Database.Path = prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "todos.db"))
	case config.BackendDynamoDB:
		cfg.DynamoDB.TableName = prompt(reader, "DynamoDB table name", "todos")
		cfg.DynamoDB.Region = prompt(reader, "AWS region (leave empty for SDK default)", "")
		cfg.DynamoDB.Endpoint = prompt(reader, "Endpoint override (e.g. http://localhost:4566, empty for AWS)", "")
		cfg.DynamoDB.CreateTable = yes(prompt(reader, "Create table if missing?", "no"))
	}
	cfg.Store.OptimisticUpdates = yes(prompt(reader, "Reject concurrent updates (optimistic)?", "no"))

	// Tailscale
	fmt.Println("\n--- Tailscale Configuration ---")
	cfg.Tailscale.Enabled = yes(prompt(reader, "Enable Tailscale?", "no"))
	if cfg.Tailscale.Enabled {
		cfg.Tailscale.Hostname = prompt(reader, "Tailscale hostname", "todo")
		cfg.Tailscale.AuthKey = prompt(reader, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		cfg.Tailscale.Ephemeral = yes(prompt(reader, "Ephemeral node?", "no"))
		cfg.Tailscale.Funnel = yes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	cfg.Logging.Level = prompt(reader, "Log level (debug/info/warn/error)", "info")
	cfg.Logging.Format = prompt(reader, "Log format (text/json)", "text")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Write(outputFile, cfg); err != nil {
		return err
	}

	if cfg.Store.Backend == config.BackendSQLite {
		// Ensure data directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  todo-gateway serve\n")

	return nil
}

func yes(answer string) bool {
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
