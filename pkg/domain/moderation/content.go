package moderation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type ContentItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// Text is the blob handed to the classifier and heuristics. Source is
// metadata only and is not moderated.
func (c ContentItem) Text() string {
	title := strings.TrimSpace(c.Title)
	summary := strings.TrimSpace(c.Summary)
	switch {
	case title == "":
		return summary
	case summary == "":
		return title
	default:
		return title + ". " + summary
	}
}

func (c ContentItem) IsEmpty() bool {
	return strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Summary) == ""
}

func (c ContentItem) Fingerprint() Fingerprint {
	return NewFingerprint(c.Title, c.Summary, c.Source)
}

type Options struct {
	CheckCopyright   bool `json:"check_copyright" mapstructure:"check_copyright"`
	StrictMode       bool `json:"strict_mode" mapstructure:"strict_mode"`
	AllowUnconfirmed bool `json:"allow_unconfirmed" mapstructure:"allow_unconfirmed"`
}

func DefaultOptions() Options {
	return Options{CheckCopyright: true}
}

// CacheKey scopes a content fingerprint to the options that change the verdict.
func (o Options) CacheKey(fp Fingerprint) Fingerprint {
	flags := []byte("---")
	if o.CheckCopyright {
		flags[0] = 'c'
	}
	if o.StrictMode {
		flags[1] = 's'
	}
	if o.AllowUnconfirmed {
		flags[2] = 'u'
	}
	return Fingerprint(string(fp) + ":" + string(flags))
}

// Fingerprint is a hex SHA-256 digest of normalized text.
type Fingerprint string

const fieldSeparator = "\x1f"

func NewFingerprint(parts ...string) Fingerprint {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = Normalize(p)
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, fieldSeparator)))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

func (f Fingerprint) String() string {
	return string(f)
}

// Normalize lower-cases, trims and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
