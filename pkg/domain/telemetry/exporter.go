package telemetry

import (
	"context"
)

type Exporter interface {
	Name() string
	ValidateConfig(settings map[string]interface{}) error
	Handle(ctx context.Context, evt *VerdictEvent) error
	WithSettings(settings map[string]interface{}) (Exporter, error)
	Close()
}
