package telemetry

import (
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
)

// ExporterLocator turns configured exporter entries into live exporters.
type ExporterLocator struct {
	exporters map[string]telemetry.Exporter
}

func NewExporterLocator(opts ...ExporterLocatorOption) *ExporterLocator {
	el := &ExporterLocator{
		exporters: make(map[string]telemetry.Exporter),
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

func (p *ExporterLocator) GetExporter(cfg telemetry.ExporterConfig) (telemetry.Exporter, error) {
	base, ok := p.exporters[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown exporter: %s", cfg.Name)
	}
	if err := base.ValidateConfig(cfg.Settings); err != nil {
		return nil, err
	}
	return base.WithSettings(cfg.Settings)
}

// Build creates every configured exporter, closing the ones already built on failure.
func (p *ExporterLocator) Build(configs []telemetry.ExporterConfig) ([]telemetry.Exporter, error) {
	out := make([]telemetry.Exporter, 0, len(configs))
	for _, cfg := range configs {
		exporter, err := p.GetExporter(cfg)
		if err != nil {
			for _, e := range out {
				e.Close()
			}
			return nil, fmt.Errorf("exporter %s: %w", cfg.Name, err)
		}
		out = append(out, exporter)
	}
	return out, nil
}
