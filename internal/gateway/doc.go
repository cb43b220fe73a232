// Package gateway orchestrates the todo-gateway HTTP server.
//
// # Overview
//
// The gateway owns the item store, the todo service built over it, and the
// HTTP server that exposes it. It opens the store backend named in the
// configuration, listens on TCP or on a Tailscale node, and closes everything
// on shutdown.
//
// # HTTP API
//
// Routes are registered on a gorilla/mux router in router.go:
//
//   - POST /todos - Create an item (201)
//   - GET /todos - List items, most recently updated first
//   - GET /todos/{todoId} - Fetch one item
//   - PUT /todos/{todoId} - Update title and/or completed
//   - DELETE /todos/{todoId} - Delete an item
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (pings the store)
//
// Errors are JSON objects of the form {"error": "..."}; the status mapping
// lives in the transport package so the Lambda handlers answer identically.
//
// A POST /todos carrying an Idempotency-Key header is answered once; repeats
// within server.idempotency_ttl get the recorded body back with
// Idempotent-Replayed: true.
//
// # Listeners
//
// With tailscale.enabled the gateway joins the tailnet through tsnet and
// serves plain HTTP on :80, HTTPS on :443 with Tailscale-issued certificates,
// or a public Funnel. Otherwise it listens on server.http_addr.
//
// # Lifecycle
//
//	gw, err := gateway.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return gw.Run(ctx) // blocks until ctx is canceled
package gateway
