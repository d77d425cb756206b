package telemetry

import "github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"

type ExporterLocatorOption func(*ExporterLocator)

func WithExporter(exporter telemetry.Exporter) ExporterLocatorOption {
	return func(el *ExporterLocator) {
		if el.exporters == nil {
			el.exporters = make(map[string]telemetry.Exporter)
		}
		el.exporters[exporter.Name()] = exporter
	}
}
