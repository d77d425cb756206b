package heuristics

import (
	"regexp"
	"sort"
	"strings"
)

const (
	CategoryViolence       = "violence"
	CategorySexual         = "sexual"
	CategorySelfHarm       = "self_harm"
	CategoryHateSpeech     = "hate_speech"
	CategoryMinors         = "minors"
	CategoryGraphicContent = "graphic_content"
)

var defaultKeywords = map[string][]string{
	CategoryViolence: {
		"murder", "massacre", "shooting", "stabbing", "beheading",
		"bombing", "terror attack", "execution-style", "gunman",
	},
	CategorySexual: {
		"porn", "explicit sex", "nude photos", "xxx", "sexual assault", "rape",
	},
	CategorySelfHarm: {
		"suicide", "self-harm", "self harm", "overdose", "kill myself",
	},
	CategoryHateSpeech: {
		"racial slur", "white supremac", "ethnic cleansing", "neo-nazi", "hate crime",
	},
	CategoryMinors: {
		"child abuse", "underage", "child exploitation", "grooming",
	},
	CategoryGraphicContent: {
		"gore", "graphic footage", "graphic images", "mutilat", "dismember", "decapitat",
	},
}

var defaultCopyrightPatterns = []string{
	`(?i)all\s+rights\s+reserved`,
	`(?i)©\s*\d{4}`,
	`(?i)\(c\)\s*\d{4}`,
	`(?i)copyright\s+(?:©\s*)?\d{4}`,
	`(?i)reprinted\s+with\s+(?:the\s+)?permission`,
	`(?i)reproduced\s+with\s+(?:the\s+)?permission`,
	`(?i)originally\s+published\s+(?:in|by|on|at)`,
	`(?i)may\s+not\s+be\s+(?:reproduced|republished|redistributed|rewritten)`,
	`(?i)without\s+(?:the\s+)?(?:prior\s+)?(?:express\s+)?written\s+permission`,
}

type KeywordResult struct {
	Found      bool
	Categories []string
}

type CopyrightResult struct {
	Risk    bool
	Matches []string
}

// Scanner runs the cheap synchronous heuristics. It is immutable after
// construction and safe for concurrent use.
type Scanner interface {
	ScanKeywords(text string) KeywordResult
	ScanCopyright(text string) CopyrightResult
}

type scanner struct {
	keywords  map[string][]string
	copyright []*regexp.Regexp
}

type Option func(*scanner)

// WithLexicon merges a loaded lexicon into the defaults, or replaces them
// when the lexicon says so.
func WithLexicon(l *Lexicon) Option {
	return func(s *scanner) {
		if l == nil {
			return
		}
		if l.Replace {
			s.keywords = make(map[string][]string)
			s.copyright = nil
		}
		for category, words := range l.Keywords {
			s.keywords[category] = append(s.keywords[category], lowerAll(words)...)
		}
		s.copyright = append(s.copyright, l.compiled...)
	}
}

func NewScanner(opts ...Option) Scanner {
	s := &scanner{
		keywords:  make(map[string][]string, len(defaultKeywords)),
		copyright: make([]*regexp.Regexp, 0, len(defaultCopyrightPatterns)),
	}
	for category, words := range defaultKeywords {
		s.keywords[category] = lowerAll(words)
	}
	for _, pattern := range defaultCopyrightPatterns {
		s.copyright = append(s.copyright, regexp.MustCompile(pattern))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *scanner) ScanKeywords(text string) KeywordResult {
	lowered := strings.ToLower(text)
	var categories []string
	for category, words := range s.keywords {
		for _, word := range words {
			if word != "" && strings.Contains(lowered, word) {
				categories = append(categories, category)
				break
			}
		}
	}
	sort.Strings(categories)
	return KeywordResult{Found: len(categories) > 0, Categories: categories}
}

func (s *scanner) ScanCopyright(text string) CopyrightResult {
	seen := make(map[string]struct{})
	var matches []string
	for _, re := range s.copyright {
		for _, m := range re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if _, ok := seen[strings.ToLower(m)]; ok {
				continue
			}
			seen[strings.ToLower(m)] = struct{}{}
			matches = append(matches, m)
		}
	}
	return CopyrightResult{Risk: len(matches) > 0, Matches: matches}
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
