package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ExporterConfig selects a registered exporter and carries its settings.
type ExporterConfig struct {
	Name     string                 `json:"name" mapstructure:"name"`
	Settings map[string]interface{} `json:"settings" mapstructure:"settings"`
}

// VerdictEvent is published once per freshly computed verdict.
type VerdictEvent struct {
	EventID          string   `json:"event_id"`
	Fingerprint      string   `json:"fingerprint"`
	Source           string   `json:"source,omitempty"`
	Provider         string   `json:"provider,omitempty"`
	ClassifierResult string   `json:"classifier_result"`
	RiskLevel        string   `json:"risk_level"`
	IsSafe           bool     `json:"is_safe"`
	IsBlocked        bool     `json:"is_blocked"`
	Categories       []string `json:"categories"`
	CopyrightRisk    bool     `json:"copyright_risk"`
	Confidence       float64  `json:"confidence"`
	StrictMode       bool     `json:"strict_mode"`
	Timestamp        int64    `json:"timestamp"`
	LatencyMs        int64    `json:"latency_ms"`
}

func NewVerdictEvent(start time.Time) *VerdictEvent {
	return &VerdictEvent{
		EventID:   uuid.NewString(),
		Timestamp: start.Unix(),
		LatencyMs: time.Since(start).Milliseconds(),
	}
}
