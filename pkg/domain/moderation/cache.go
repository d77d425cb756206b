package moderation

import "context"

// Cache is a fail-open store keyed by fingerprint. Implementations swallow
// backend errors: a failed Get is a miss and a failed Put is dropped.
type Cache[T any] interface {
	Get(ctx context.Context, key Fingerprint) (T, bool)
	Put(ctx context.Context, key Fingerprint, value T)
}

type (
	VerdictCache = Cache[Verdict]
	ScoreCache   = Cache[Scores]
)
