package gateway

import (
	"context"

	"github.com/totegamma/carelog/client"
)

// HealthProbe treats the store as reachable when its health endpoint answers 200.
type HealthProbe struct {
	client *client.Client
}

func NewHealthProbe(cl *client.Client) *HealthProbe {
	return &HealthProbe{client: cl}
}

func (p *HealthProbe) Reachable(ctx context.Context) bool {
	return p.client.Health(ctx) == nil
}
