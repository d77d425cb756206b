package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
)

const (
	ProviderPerspective = "perspective"
	ProviderOpenAI      = "openai"
)

var (
	ErrUnexpectedStatus    = errors.New("classifier returned unexpected status")
	ErrMalformedResponse   = errors.New("classifier returned malformed response")
	ErrUnsupportedProvider = errors.New("unsupported classifier provider")
)

// Client scores text for toxicity. Scores use the canonical category names
// from the moderation package; providers may add extra categories.
//
//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore
type Client interface {
	Name() string
	Analyze(ctx context.Context, text string) (moderation.Scores, error)
}

type Config struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}
