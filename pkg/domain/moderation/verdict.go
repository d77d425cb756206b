package moderation

import (
	"fmt"
	"sort"
	"strings"
)

type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskProhibited
)

var riskLevelNames = map[RiskLevel]string{
	RiskLow:        "low",
	RiskMedium:     "medium",
	RiskHigh:       "high",
	RiskProhibited: "prohibited",
}

func (r RiskLevel) String() string {
	if name, ok := riskLevelNames[r]; ok {
		return name
	}
	return "unknown"
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	for level, name := range riskLevelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return level, nil
		}
	}
	return RiskLow, fmt.Errorf("unknown risk level: %q", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// Verdict is the outcome of moderating a single content item.
type Verdict struct {
	IsSafe           bool      `json:"is_safe"`
	IsBlocked        bool      `json:"is_blocked"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Categories       []string  `json:"categories"`
	Reasons          []string  `json:"reasons"`
	CopyrightRisk    bool      `json:"copyright_risk"`
	CopyrightMatches []string  `json:"copyright_matches,omitempty"`
	Confidence       float64   `json:"confidence"`
}

const (
	PlaceholderConfidence = 0.3

	ReasonEmptyContent          = "empty content"
	ReasonTimeout               = "timeout, assumed safe"
	ReasonEvaluationFailed      = "evaluation failed, assumed safe"
	ReasonClassifierUnavailable = "moderation service unavailable, flagged for review"
	ReasonUnconfirmedAllowed    = "moderation service unavailable, allowed unconfirmed"
)

// EmptyContentVerdict is the only verdict that blocks without a classifier signal.
func EmptyContentVerdict() Verdict {
	return Verdict{
		IsSafe:     false,
		IsBlocked:  true,
		RiskLevel:  RiskProhibited,
		Categories: []string{},
		Reasons:    []string{ReasonEmptyContent},
		Confidence: 1.0,
	}
}

// PlaceholderVerdict stands in for an item that could not be evaluated in time.
func PlaceholderVerdict(reason string) Verdict {
	return Verdict{
		IsSafe:     true,
		IsBlocked:  false,
		RiskLevel:  RiskLow,
		Categories: []string{},
		Reasons:    []string{reason},
		Confidence: PlaceholderConfidence,
	}
}

func (v *Verdict) AddCategory(categories ...string) {
	v.Categories = append(v.Categories, categories...)
}

func (v *Verdict) AddReason(format string, args ...interface{}) {
	v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
}

func (v *Verdict) HasCategory(category string) bool {
	for _, c := range v.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Finalize derives IsSafe and normalizes the category set.
func (v *Verdict) Finalize() {
	if v.RiskLevel == RiskProhibited {
		v.IsBlocked = true
	}
	v.IsSafe = !v.IsBlocked && v.RiskLevel != RiskProhibited
	v.Categories = dedupe(v.Categories)
	if v.Reasons == nil {
		v.Reasons = []string{}
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
