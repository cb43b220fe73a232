// Package lambda adapts the todo service to API Gateway proxy events.
//
// Each operation is its own handler so it can be deployed as an independent
// function. The service, and the store connection under it, is built on the
// first invocation and reused afterwards. A failed build is not kept, so a
// later invocation in the same execution environment tries again.
//
// Handlers are looked up by name (ByName) so one binary can serve every
// function; cmd/todo-lambda picks the name from TODO_HANDLER or _HANDLER.
// The "router" handler dispatches on method and path for single-function
// deployments behind a greedy proxy route.
package lambda
