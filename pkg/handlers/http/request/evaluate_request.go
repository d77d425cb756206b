package request

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrMissingItems  = errors.New("items is required")
	ErrTooManyItems  = errors.New("too many items")
	ErrInvalidOption = errors.New("invalid options")
)

type ItemRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

func (r ItemRequest) ToContentItem() moderation.ContentItem {
	return moderation.ContentItem{
		Title:   r.Title,
		Summary: r.Summary,
		Source:  r.Source,
	}
}

type EvaluateRequest struct {
	ItemRequest
	Options map[string]interface{} `json:"options"`
}

type EvaluateBatchRequest struct {
	Items   []ItemRequest          `json:"items"`
	Options map[string]interface{} `json:"options"`
}

func (r *EvaluateBatchRequest) Validate(maxItems int) error {
	if r.Items == nil {
		return ErrMissingItems
	}
	if maxItems > 0 && len(r.Items) > maxItems {
		return fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyItems, len(r.Items), maxItems)
	}
	return nil
}

func (r *EvaluateBatchRequest) ContentItems() []moderation.ContentItem {
	items := make([]moderation.ContentItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = it.ToContentItem()
	}
	return items
}

// ParseOptions overlays the request options onto the defaults. Unknown keys
// are rejected; "true"/"1" style values are accepted.
func ParseOptions(raw map[string]interface{}) (moderation.Options, error) {
	opts := moderation.DefaultOptions()
	if len(raw) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(raw); err != nil {
		return moderation.DefaultOptions(), fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return opts, nil
}
