// Package config handles configuration loading for todo-gateway.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Fields missing from the file keep the values from Default().
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TODO_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/todo-gateway/config.yaml
//  3. ~/.config/todo-gateway/config.yaml
//
// A path ending in .toml is parsed as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	dynamodb:
//	  table_name: "${TODO_TABLE}"
//
// Syntax: ${VAR_NAME}
//
// # Environment Overrides
//
// These variables win over file values:
//
//   - TODO_DB_PATH: database.path
//   - TABLE_NAME: dynamodb.table_name
//   - AWS_ENDPOINT_URL: dynamodb.endpoint
//   - AWS_DEFAULT_REGION, AWS_REGION: dynamodb.region (AWS_REGION wins)
//
// LoadFromEnv builds a DynamoDB configuration from these variables alone, for
// Lambda execution environments where no file exists.
//
// # Configuration Sections
//
//	server:
//	  http_addr: ":8080"
//	  read_header_timeout: "10s"
//	  shutdown_timeout: "5s"
//
//	store:
//	  backend: "sqlite"          # sqlite, dynamodb, memory
//	  optimistic_updates: false  # conditional writes on updatedAt
//
//	database:
//	  path: "./data/todos.db"
//
//	dynamodb:
//	  table_name: "todos"
//	  region: "eu-west-1"
//	  endpoint: "http://localhost:4566"  # local emulator
//	  create_table: true
//
//	tailscale:
//	  enabled: false
//	  hostname: "todo"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//	  funnel: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The same structure in TOML uses [server], [store] and so on.
//
// # Validation
//
// Load() validates:
//
//   - store.backend is a known backend and its settings are present
//   - server.http_addr is set unless tailscale is enabled
//   - tailscale.hostname is set when tailscale is enabled
//   - duration format validity
package config
