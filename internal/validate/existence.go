package validate

import (
	"regexp"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// ExistenceClassifier maps raw existence labels onto canonical levels
type ExistenceClassifier struct {
	config   *model.ExistenceConfig
	aliases  map[string]model.ExistenceLevel
	patterns []*compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	level   model.ExistenceLevel
}

// NewExistenceClassifier creates a classifier from config. Invalid patterns are skipped.
func NewExistenceClassifier(config *model.ExistenceConfig) *ExistenceClassifier {
	if config == nil {
		config = &model.DefaultConfig().Existence
	}

	classifier := &ExistenceClassifier{
		config:   config,
		aliases:  make(map[string]model.ExistenceLevel),
		patterns: make([]*compiledPattern, 0, len(config.Patterns)),
	}

	for alias, level := range config.Aliases {
		classifier.aliases[strings.ToLower(strings.TrimSpace(alias))] = level
	}

	for _, p := range config.Patterns {
		if re, err := regexp.Compile(p.Pattern); err == nil {
			classifier.patterns = append(classifier.patterns, &compiledPattern{
				pattern: re,
				level:   p.Level,
			})
		}
	}

	return classifier
}

// Classify returns the canonical level for a raw label. The second result is false when
// the label matched nothing; the trimmed label is then returned verbatim.
func (c *ExistenceClassifier) Classify(raw string) (model.ExistenceLevel, bool) {
	label := strings.TrimSpace(raw)

	// Canonical labels, any case
	for _, level := range model.ExistenceLevels() {
		if strings.EqualFold(label, string(level)) {
			return level, true
		}
	}

	// Explicit aliases
	if level, ok := c.aliases[strings.ToLower(label)]; ok {
		return level, true
	}

	// UniProt PE line forms ("1: Evidence at protein level", "PE 3")
	for _, cp := range c.patterns {
		if cp.pattern.MatchString(label) {
			return cp.level, true
		}
	}

	// Labels embedding a canonical one ("Evidence at protein level;")
	lower := strings.ToLower(label)
	for _, level := range model.ExistenceLevels() {
		if strings.Contains(lower, strings.ToLower(string(level))) {
			return level, true
		}
	}

	return model.ExistenceLevel(label), false
}
