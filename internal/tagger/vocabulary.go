package tagger

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the bounded set of labels a classifier may emit. When no
// vocabulary is configured, classifier output is accepted as-is after
// normalization.
type Vocabulary struct {
	labels map[string]struct{}
}

type vocabularyFile struct {
	Labels []string `yaml:"labels"`
}

// LoadVocabulary reads a label vocabulary from a YAML file. An empty path
// yields a nil vocabulary, meaning "accept any label".
func LoadVocabulary(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var vf vocabularyFile
	if err := yaml.Unmarshal(raw, &vf); err != nil {
		return nil, fmt.Errorf("decode vocabulary file: %w", err)
	}
	if len(vf.Labels) == 0 {
		return nil, errors.New("vocabulary file contains no labels")
	}

	labels := make(map[string]struct{}, len(vf.Labels))
	for i, label := range vf.Labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			return nil, fmt.Errorf("vocabulary label[%d] is empty", i)
		}
		labels[label] = struct{}{}
	}

	return &Vocabulary{labels: labels}, nil
}

// Allowed reports whether the (already normalized) label is in the
// vocabulary.
func (v *Vocabulary) Allowed(label string) bool {
	if v == nil {
		return true
	}
	_, ok := v.labels[label]
	return ok
}
