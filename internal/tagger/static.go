package tagger

import "context"

// Static returns a fixed label list for every input. It is the default
// classifier when no API key is configured.
type Static struct {
	labels []string
}

// NewStatic constructs a fixed-output classifier. With no labels it answers
// the historical placeholder set.
func NewStatic(labels ...string) *Static {
	if len(labels) == 0 {
		labels = []string{"knowledge", "testing"}
	}
	return &Static{labels: labels}
}

func (s *Static) Classify(_ context.Context, _ string) ([]string, error) {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out, nil
}
