package moderation

const (
	CategoryToxicity         = "toxicity"
	CategorySevereToxicity   = "severe_toxicity"
	CategoryIdentityAttack   = "identity_attack"
	CategoryInsult           = "insult"
	CategoryProfanity        = "profanity"
	CategoryThreat           = "threat"
	CategorySexuallyExplicit = "sexually_explicit"
	CategoryCopyright        = "copyright"
)

// Scores holds per-category classifier probabilities in [0,1].
type Scores struct {
	Categories map[string]float64 `json:"categories"`
	Overall    float64            `json:"overall"`
}

func NewScores(categories map[string]float64) Scores {
	s := Scores{Categories: make(map[string]float64, len(categories))}
	for name, value := range categories {
		v := clamp(value)
		s.Categories[name] = v
		if v > s.Overall {
			s.Overall = v
		}
	}
	return s
}

func (s Scores) Get(category string) float64 {
	if s.Categories == nil {
		return 0
	}
	return s.Categories[category]
}

// Max returns the highest score among the given categories and which one produced it.
func (s Scores) Max(categories ...string) (string, float64) {
	var (
		name string
		best float64
	)
	for _, c := range categories {
		if v := s.Get(c); v > best || name == "" {
			name, best = c, v
		}
	}
	return name, best
}

// Top returns the category behind Overall. Ties prefer toxicity, then the
// lexically smallest name.
func (s Scores) Top() (string, float64) {
	name, best := CategoryToxicity, s.Get(CategoryToxicity)
	for c, v := range s.Categories {
		if v > best || (v == best && name != CategoryToxicity && c < name) {
			name, best = c, v
		}
	}
	return name, best
}

// AnyAbove reports whether any score, overall included, exceeds threshold.
func (s Scores) AnyAbove(threshold float64) bool {
	if s.Overall > threshold {
		return true
	}
	for _, v := range s.Categories {
		if v > threshold {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type Outcome int

const (
	OutcomeScored Outcome = iota
	OutcomeUnavailable
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScored:
		return "scored"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ClassifierResult is Scored(scores), Unavailable(reason) or TimedOut(reason).
type ClassifierResult struct {
	Outcome Outcome
	Scores  Scores
	Reason  string
}

func Scored(scores Scores) ClassifierResult {
	return ClassifierResult{Outcome: OutcomeScored, Scores: scores}
}

func Unavailable(reason string) ClassifierResult {
	return ClassifierResult{Outcome: OutcomeUnavailable, Reason: reason}
}

func TimedOut(reason string) ClassifierResult {
	return ClassifierResult{Outcome: OutcomeTimedOut, Reason: reason}
}

func (r ClassifierResult) OK() bool {
	return r.Outcome == OutcomeScored
}
