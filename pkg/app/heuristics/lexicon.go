package heuristics

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Lexicon extends the built-in keyword categories and copyright patterns.
//
//	replace: false
//	keywords:
//	  violence: ["car bomb"]
//	copyright_patterns:
//	  - "(?i)syndicated by"
type Lexicon struct {
	Replace           bool                `yaml:"replace"`
	Keywords          map[string][]string `yaml:"keywords"`
	CopyrightPatterns []string            `yaml:"copyright_patterns"`

	compiled []*regexp.Regexp
}

func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon rejects documents with invalid regular expressions.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var l Lexicon
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	for _, pattern := range l.CopyrightPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid copyright pattern %q: %w", pattern, err)
		}
		l.compiled = append(l.compiled, re)
	}
	return &l, nil
}
