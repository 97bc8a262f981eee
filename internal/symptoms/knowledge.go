// Package symptoms diagnoses free-text symptom descriptions against a
// keyword knowledge base. It serves requests that carry no image.
package symptoms

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"leaf-doctor/internal/types"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// Entry is one symptom family in the knowledge base.
type Entry struct {
	ID        string         `yaml:"id" validate:"required"`
	Name      string         `yaml:"name" validate:"required"`
	Keywords  []string       `yaml:"keywords" validate:"required,min=1,dive,required"`
	Causes    []string       `yaml:"causes" validate:"required,min=1,dive,required"`
	Severity  types.Severity `yaml:"severity" validate:"oneof=mild moderate high"`
	Advice    string         `yaml:"advice" validate:"required"`
	Treatment string         `yaml:"treatment" validate:"required"`
	FollowUp  string         `yaml:"followUp"`
}

// KnowledgeBase is the ordered, read-only list of entries.
type KnowledgeBase struct {
	Entries []Entry `yaml:"symptoms" validate:"required,min=1,dive"`
}

var loadDefault = sync.OnceValues(func() (*KnowledgeBase, error) {
	return LoadFrom(bytes.NewReader(knowledgeYAML))
})

// Load returns the embedded knowledge base. It is parsed once.
func Load() (*KnowledgeBase, error) {
	return loadDefault()
}

// LoadFrom parses and validates a knowledge base in YAML form.
func LoadFrom(r io.Reader) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.NewDecoder(r).Decode(&kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	if err := validator.New().Struct(kb); err != nil {
		return nil, fmt.Errorf("invalid knowledge base: %w", err)
	}

	seen := make(map[string]bool, len(kb.Entries))
	for i := range kb.Entries {
		e := &kb.Entries[i]
		if seen[e.ID] {
			return nil, fmt.Errorf("invalid knowledge base: duplicate id %q", e.ID)
		}
		seen[e.ID] = true
		for j, k := range e.Keywords {
			e.Keywords[j] = strings.ToLower(k)
		}
	}
	return &kb, nil
}

// Match is an entry with at least one keyword found in a query.
type Match struct {
	Entry    *Entry
	Keywords []string
}

// Count is the number of matched keywords.
func (m Match) Count() int {
	return len(m.Keywords)
}

// Match returns the entries whose keywords occur in query, most keywords
// first. Entries with equal counts keep knowledge base order.
func (kb *KnowledgeBase) Match(query string) []Match {
	input := strings.ToLower(query)

	var matches []Match
	for i := range kb.Entries {
		e := &kb.Entries[i]
		var hit []string
		for _, k := range e.Keywords {
			if strings.Contains(input, k) {
				hit = append(hit, k)
			}
		}
		if len(hit) > 0 {
			matches = append(matches, Match{Entry: e, Keywords: hit})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Count() > matches[j].Count()
	})
	return matches
}
