package tagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/deepak-arjariya/wikisearch/pkg/httpclient"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"plain list", "science, history, art", []string{"science", "history", "art"}},
		{"newlines and bullets", "- Science\n- History", []string{"science", "history"}},
		{"quotes and periods", `"Biology", 'Physics'.`, []string{"biology", "physics"}},
		{"dedupe", "cats, Cats, CATS", []string{"cats"}},
		{"caps label count", "a, b, c, d, e, f, g, h", []string{"a", "b", "c", "d", "e", "f"}},
		{"empty input", "   ", []string{}},
		{"only delimiters", ",,;\n", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in, nil)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Normalize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeCapsLabelLength(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := Normalize(long, nil)
	if len(got) != 1 || len([]rune(got[0])) != 32 {
		t.Fatalf("expected one 32-rune label, got %v", got)
	}
}

func TestNormalizeWithVocabulary(t *testing.T) {
	vocab := writeVocab(t, "labels:\n  - science\n  - history\n")

	got := Normalize("science, astrology, history", vocab)
	if !reflect.DeepEqual(got, []string{"science", "history"}) {
		t.Fatalf("expected vocabulary filtering, got %v", got)
	}
}

func TestLoadVocabulary(t *testing.T) {
	if v, err := LoadVocabulary(""); err != nil || v != nil {
		t.Fatalf("empty path should yield nil vocabulary, got %v, %v", v, err)
	}

	if _, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("labels: []\n"), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	if _, err := LoadVocabulary(empty); err == nil {
		t.Fatalf("expected error for empty vocabulary")
	}
}

func TestVocabularyNilAllowsAll(t *testing.T) {
	var v *Vocabulary
	if !v.Allowed("anything") {
		t.Fatalf("nil vocabulary must allow all labels")
	}
}

func TestStaticClassifier(t *testing.T) {
	labels, err := NewStatic().Classify(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !reflect.DeepEqual(labels, []string{"knowledge", "testing"}) {
		t.Fatalf("unexpected default labels: %v", labels)
	}

	labels, err = NewStatic("a", "b").Classify(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !reflect.DeepEqual(labels, []string{"a", "b"}) {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestOpenAIClassify(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Science, History, Art"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(httpclient.NewRestyClient(5*time.Second), srv.URL, "sk-test", "gpt-4o-mini", nil)
	labels, err := c.Classify(context.Background(), "some article text")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !reflect.DeepEqual(labels, []string{"science", "history", "art"}) {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestOpenAIClassifyFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"no choices": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"unusable content": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":",,;"}}]}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			c := NewOpenAI(httpclient.NewRestyClient(5*time.Second), srv.URL, "sk-test", "gpt-4o-mini", nil)
			if _, err := c.Classify(context.Background(), "text"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestFallbackTags(t *testing.T) {
	if !reflect.DeepEqual(FallbackTags(), []string{"untagged"}) {
		t.Fatalf("unexpected fallback: %v", FallbackTags())
	}
}

func writeVocab(t *testing.T, content string) *Vocabulary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	vocab, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("load vocab: %v", err)
	}
	return vocab
}
