package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExporter struct {
	name        string
	validateErr error
	closed      bool
}

func (m *mockExporter) Name() string { return m.name }

func (m *mockExporter) ValidateConfig(map[string]interface{}) error { return m.validateErr }

func (m *mockExporter) Handle(context.Context, *telemetry.VerdictEvent) error { return nil }

func (m *mockExporter) WithSettings(map[string]interface{}) (telemetry.Exporter, error) {
	return m, nil
}

func (m *mockExporter) Close() { m.closed = true }

func TestExporterLocator_GetExporter(t *testing.T) {
	good := &mockExporter{name: "good"}
	bad := &mockExporter{name: "bad", validateErr: errors.New("missing host")}
	locator := NewExporterLocator(WithExporter(good), WithExporter(bad))

	exporter, err := locator.GetExporter(telemetry.ExporterConfig{Name: "good"})
	require.NoError(t, err)
	assert.Equal(t, "good", exporter.Name())

	_, err = locator.GetExporter(telemetry.ExporterConfig{Name: "bad"})
	assert.EqualError(t, err, "missing host")

	_, err = locator.GetExporter(telemetry.ExporterConfig{Name: "unknown"})
	assert.Error(t, err)
}

func TestExporterLocator_BuildClosesOnFailure(t *testing.T) {
	good := &mockExporter{name: "good"}
	bad := &mockExporter{name: "bad", validateErr: errors.New("invalid")}
	locator := NewExporterLocator(WithExporter(good), WithExporter(bad))

	_, err := locator.Build([]telemetry.ExporterConfig{{Name: "good"}, {Name: "bad"}})
	assert.Error(t, err)
	assert.True(t, good.closed)
}
