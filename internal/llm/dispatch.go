package llm

import (
	"context"
	"fmt"
)

// Dispatcher routes requests to a client by model provider prefix.
type Dispatcher struct {
	routes   map[string]Client
	fallback Client
}

// NewDispatcher creates a dispatcher. fallback serves providers without a
// route and may be nil.
func NewDispatcher(fallback Client) *Dispatcher {
	return &Dispatcher{routes: make(map[string]Client), fallback: fallback}
}

// Route sends models prefixed "provider/" to c.
func (d *Dispatcher) Route(provider string, c Client) *Dispatcher {
	d.routes[provider] = c
	return d
}

// Complete forwards req to the matching client.
func (d *Dispatcher) Complete(ctx context.Context, req Request) (*Response, error) {
	if c, ok := d.routes[Provider(req.Model)]; ok {
		return c.Complete(ctx, req)
	}
	if d.fallback == nil {
		return nil, fmt.Errorf("no provider configured for model %q", req.Model)
	}
	return d.fallback.Complete(ctx, req)
}
