package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

const (
	DefaultPerspectiveURL = "https://commentanalyzer.googleapis.com"
	analyzePath           = "/v1alpha1/comments:analyze"
	maxResponseBytes      = 1 << 20
)

// requested attribute -> canonical category
var perspectiveAttributes = map[string]string{
	"TOXICITY":          moderation.CategoryToxicity,
	"SEVERE_TOXICITY":   moderation.CategorySevereToxicity,
	"IDENTITY_ATTACK":   moderation.CategoryIdentityAttack,
	"INSULT":            moderation.CategoryInsult,
	"PROFANITY":         moderation.CategoryProfanity,
	"THREAT":            moderation.CategoryThreat,
	"SEXUALLY_EXPLICIT": moderation.CategorySexuallyExplicit,
}

type perspectiveRequest struct {
	Comment             perspectiveComment  `json:"comment"`
	Languages           []string            `json:"languages"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                `json:"doNotStore"`
}

type perspectiveComment struct {
	Text string `json:"text"`
}

type PerspectiveClient struct {
	client   httpx.Client
	endpoint string
	logger   *logrus.Logger
	parsers  fastjson.ParserPool
}

func NewPerspectiveClient(cfg Config, opts ...Option) *PerspectiveClient {
	o := buildOptions(cfg, opts)
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultPerspectiveURL
	}
	return &PerspectiveClient{
		client:   o.httpClient,
		endpoint: base + analyzePath + "?key=" + url.QueryEscape(cfg.APIKey),
		logger:   o.logger,
	}
}

func (c *PerspectiveClient) Name() string {
	return ProviderPerspective
}

func (c *PerspectiveClient) Analyze(ctx context.Context, text string) (moderation.Scores, error) {
	attrs := make(map[string]struct{}, len(perspectiveAttributes))
	for name := range perspectiveAttributes {
		attrs[name] = struct{}{}
	}
	body, err := json.Marshal(perspectiveRequest{
		Comment:             perspectiveComment{Text: text},
		Languages:           []string{"en"},
		RequestedAttributes: attrs,
		DoNotStore:          true,
	})
	if err != nil {
		return moderation.Scores{}, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return moderation.Scores{}, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return moderation.Scores{}, fmt.Errorf("failed to call perspective: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return moderation.Scores{}, fmt.Errorf("perspective response read error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"provider":    ProviderPerspective,
		}).Warn("classifier returned non-200 status")
		return moderation.Scores{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return c.parse(payload)
}

func (c *PerspectiveClient) parse(payload []byte) (moderation.Scores, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(payload)
	if err != nil {
		return moderation.Scores{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	attributeScores := v.GetObject("attributeScores")
	if attributeScores == nil {
		return moderation.Scores{}, fmt.Errorf("%w: missing attributeScores", ErrMalformedResponse)
	}

	categories := make(map[string]float64, len(perspectiveAttributes))
	for attr, category := range perspectiveAttributes {
		value := attributeScores.Get(attr)
		if value == nil {
			continue
		}
		score := value.Get("summaryScore", "value")
		if score == nil {
			continue
		}
		f, err := score.Float64()
		if err != nil {
			return moderation.Scores{}, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, attr, err)
		}
		categories[category] = f
	}
	if len(categories) == 0 {
		return moderation.Scores{}, fmt.Errorf("%w: no attribute scores", ErrMalformedResponse)
	}
	return moderation.NewScores(categories), nil
}
