// Package api talks to Roam Research graphs and exposes them as outline
// notebooks: pages are notes and blocks are line items.
package api

import (
	"context"
	"encoding/json"
)

// Graph is the subset of the Roam backend API the notebooks use. Client
// implements it.
type Graph interface {
	// Query executes a Datalog query against the graph.
	Query(ctx context.Context, query string, args ...interface{}) ([][]interface{}, error)

	// Pull retrieves an entity with the given selector pattern. The eid can
	// be an entity id or a lookup ref like [:block/uid "xxx"].
	Pull(ctx context.Context, eid interface{}, selector string) (json.RawMessage, error)

	// Write performs one write action.
	Write(ctx context.Context, action WriteAction, data map[string]interface{}) error

	// GraphName returns the name of the graph.
	GraphName() string
}

// Error types for specific API errors
type (
	// AuthenticationError indicates an authentication failure
	AuthenticationError struct{ Message string }
	// RateLimitError indicates rate limit exceeded
	RateLimitError struct{ Message string }
	// NotFoundError indicates a resource was not found
	NotFoundError struct{ Message string }
	// ValidationError indicates invalid input
	ValidationError struct{ Message string }
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e NotFoundError) Error() string       { return e.Message }
func (e ValidationError) Error() string     { return e.Message }
