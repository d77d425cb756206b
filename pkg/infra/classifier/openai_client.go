package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sirupsen/logrus"
)

const (
	CategoryViolence = "violence"
	CategorySelfHarm = "self_harm"
)

// OpenAIClient maps the moderation endpoint's categories onto the canonical set.
type OpenAIClient struct {
	client openai.Client
	logger *logrus.Logger
}

func NewOpenAIClient(cfg Config, opts ...Option) *OpenAIClient {
	o := buildOptions(cfg, opts)
	requestOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpx.StdClient(o.httpClient)),
		// the quota limiter owns retries
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIClient{
		client: openai.NewClient(requestOpts...),
		logger: o.logger,
	}
}

func (c *OpenAIClient) Name() string {
	return ProviderOpenAI
}

func (c *OpenAIClient) Analyze(ctx context.Context, text string) (moderation.Scores, error) {
	resp, err := c.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModelOmniModerationLatest,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.WithFields(logrus.Fields{
				"status_code": apiErr.StatusCode,
				"provider":    ProviderOpenAI,
			}).Warn("classifier returned non-200 status")
			return moderation.Scores{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, apiErr.StatusCode)
		}
		return moderation.Scores{}, fmt.Errorf("failed to call openai moderation: %w", err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return moderation.Scores{}, fmt.Errorf("%w: no moderation results", ErrMalformedResponse)
	}
	return mapOpenAIScores(resp.Results[0].CategoryScores), nil
}

func mapOpenAIScores(s openai.ModerationCategoryScores) moderation.Scores {
	threatening := max(s.HarassmentThreatening, s.HateThreatening)
	return moderation.NewScores(map[string]float64{
		moderation.CategoryToxicity:         max(s.Harassment, s.Hate),
		moderation.CategorySevereToxicity:   threatening,
		moderation.CategoryIdentityAttack:   s.Hate,
		moderation.CategoryInsult:           s.Harassment,
		moderation.CategoryThreat:           threatening,
		moderation.CategorySexuallyExplicit: max(s.Sexual, s.SexualMinors),
		CategoryViolence:                    max(s.Violence, s.ViolenceGraphic),
		CategorySelfHarm:                    max(s.SelfHarm, s.SelfHarmIntent, s.SelfHarmInstructions),
	})
}
