package dependency_container_test

import (
	"context"
	"testing"

	"github.com/NeuralTrust/NewsGuard/pkg/config"
	"github.com/NeuralTrust/NewsGuard/pkg/dependency_container"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/classifier"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Classifier.APIKey = ""
	return cfg
}

func TestNewContainer_MemoryBackends(t *testing.T) {
	c, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    memoryConfig(t),
		Logger: logrus.New(),
	})
	require.NoError(t, err)
	c.Start(context.Background())
	defer c.Close()

	assert.Equal(t, "none", c.Classifier.Provider())

	v := c.Engine.Evaluate(context.Background(), domain.ContentItem{
		Title:   "Council approves new budget",
		Summary: "The vote passed after a long debate.",
	}, domain.DefaultOptions())
	assert.Equal(t, domain.RiskMedium, v.RiskLevel)
	assert.False(t, v.IsBlocked)

	stats, err := c.Limiter.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, stats.Limit)
}

func TestNewContainer_UnknownProvider(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Classifier.APIKey = "key"
	cfg.Classifier.Provider = "mystery"

	_, err := dependency_container.NewContainer(dependency_container.ContainerDI{Cfg: cfg, Logger: logrus.New()})
	assert.ErrorIs(t, err, classifier.ErrUnsupportedProvider)
}
