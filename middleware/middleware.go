// Package middleware provides composable llm.Client decorators. Every stage
// of the pipeline talks to the model through an llm.Client, so concerns like
// logging, deadlines, retries and rate limiting wrap once here instead of
// leaking into stage code.
package middleware

import (
	"github.com/veracity-ai/veracity/llm"
)

// Middleware wraps an llm.Client with additional behavior.
type Middleware interface {
	// Name identifies the middleware for logging and debugging.
	Name() string

	// Wrap returns a client that applies this middleware around next.
	Wrap(next llm.Client) llm.Client
}

// Chain applies middlewares around a base client. The first middleware in the
// list is the outermost wrapper, so Chain(c, a, b) executes a, then b, then c.
func Chain(base llm.Client, middlewares ...Middleware) llm.Client {
	client := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i].Wrap(client)
	}
	return client
}
