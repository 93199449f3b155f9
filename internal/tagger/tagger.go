package tagger

import (
	"context"
	"strings"
)

// Package tagger contains the text-classification boundary. Classifiers are
// unreliable collaborators: callers must treat any error or empty result as
// a signal to fall back, never as a reason to fail the save.

// Classifier derives a small ordered set of topic labels for article text.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]string, error)
}

const (
	// maxLabels bounds how many labels survive normalization.
	maxLabels = 6
	// maxLabelRunes bounds individual label length.
	maxLabelRunes = 32
)

// FallbackTags is the tag list substituted when classification fails or
// produces nothing usable.
func FallbackTags() []string {
	return []string{"untagged"}
}

// Normalize turns free-form classifier output into a bounded, validated
// label list. Labels are split on commas, semicolons and newlines, stripped
// of surrounding quotes, bullets and trailing periods, lowercased, deduped
// and capped. When a vocabulary is present, labels outside it are dropped.
// An empty result means the caller should fall back.
func Normalize(raw string, vocab *Vocabulary) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, maxLabels)
	for _, field := range fields {
		label := cleanLabel(field)
		if label == "" {
			continue
		}
		if vocab != nil && !vocab.Allowed(label) {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
		if len(out) == maxLabels {
			break
		}
	}
	return out
}

func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ". \t")
	s = strings.Trim(s, `"'`)
	s = strings.TrimLeft(s, "-*# \t")
	s = strings.TrimRight(s, ". \t")
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) > maxLabelRunes {
		s = string(runes[:maxLabelRunes])
	}
	return s
}
