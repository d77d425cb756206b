package moderation

import (
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
)

// Policy holds the tiered thresholds. Scores must strictly exceed a
// threshold to trigger it.
type Policy struct {
	CriticalThreshold      float64  `mapstructure:"critical_threshold"`
	HighThreshold          float64  `mapstructure:"high_threshold"`
	MediumThreshold        float64  `mapstructure:"medium_threshold"`
	CorroborationThreshold float64  `mapstructure:"corroboration_threshold"`
	CriticalCategories     []string `mapstructure:"critical_categories"`
	MediumCategories       []string `mapstructure:"medium_categories"`
	// StrictCategories must concur, at least StrictMinSignals of them above
	// HighThreshold, before strict mode escalates a high verdict.
	StrictCategories []string `mapstructure:"strict_categories"`
	StrictMinSignals int      `mapstructure:"strict_min_signals"`
}

func DefaultPolicy() Policy {
	return Policy{
		CriticalThreshold:      0.85,
		HighThreshold:          0.75,
		MediumThreshold:        0.60,
		CorroborationThreshold: 0.5,
		CriticalCategories: []string{
			domain.CategorySevereToxicity,
			domain.CategoryThreat,
			domain.CategoryIdentityAttack,
			domain.CategorySexuallyExplicit,
		},
		MediumCategories: []string{
			domain.CategoryToxicity,
			domain.CategorySevereToxicity,
			domain.CategoryProfanity,
			domain.CategoryInsult,
		},
		StrictCategories: []string{
			domain.CategorySevereToxicity,
			domain.CategoryThreat,
			domain.CategoryIdentityAttack,
		},
		StrictMinSignals: 1,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.CriticalThreshold <= 0 {
		p.CriticalThreshold = d.CriticalThreshold
	}
	if p.HighThreshold <= 0 {
		p.HighThreshold = d.HighThreshold
	}
	if p.MediumThreshold <= 0 {
		p.MediumThreshold = d.MediumThreshold
	}
	if p.CorroborationThreshold <= 0 {
		p.CorroborationThreshold = d.CorroborationThreshold
	}
	if len(p.CriticalCategories) == 0 {
		p.CriticalCategories = d.CriticalCategories
	}
	if len(p.MediumCategories) == 0 {
		p.MediumCategories = d.MediumCategories
	}
	if len(p.StrictCategories) == 0 {
		p.StrictCategories = d.StrictCategories
	}
	if p.StrictMinSignals <= 0 {
		p.StrictMinSignals = d.StrictMinSignals
	}
	return p
}

func (p Policy) strictSignals(scores domain.Scores) []string {
	var signals []string
	for _, c := range p.StrictCategories {
		if scores.Get(c) > p.HighThreshold {
			signals = append(signals, c)
		}
	}
	return signals
}
