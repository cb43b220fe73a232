// Package client is an HTTP client for the todo-gateway API.
//
// Client wraps the /todos routes and the health endpoints. Non-2xx responses
// come back as *APIError carrying the status and the server's error message;
// IsNotFound reports the 404 case.
//
//	c := client.New("http://localhost:8080")
//	item, err := c.Create(ctx, "Buy milk")
package client
