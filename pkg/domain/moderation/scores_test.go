package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScores_Top(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]float64
		category string
		score    float64
	}{
		{name: "insult outranks toxicity", values: map[string]float64{CategoryToxicity: 0.2, CategoryInsult: 0.8}, category: CategoryInsult, score: 0.8},
		{name: "extra provider category", values: map[string]float64{"violence": 0.9, CategoryThreat: 0.5}, category: "violence", score: 0.9},
		{name: "tie prefers toxicity", values: map[string]float64{CategoryToxicity: 0.7, CategoryInsult: 0.7}, category: CategoryToxicity, score: 0.7},
		{name: "tie without toxicity is lexical", values: map[string]float64{CategoryProfanity: 0.6, CategoryInsult: 0.6}, category: CategoryInsult, score: 0.6},
		{name: "empty", values: nil, category: CategoryToxicity, score: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScores(tt.values)
			category, score := s.Top()
			assert.Equal(t, tt.category, category)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.InDelta(t, s.Overall, score, 1e-9)
		})
	}
}
