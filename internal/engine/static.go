package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// StaticEngine translates from a fixed dictionary keyed by
// (targetLang, text). Used in local runs and tests; unknown texts fail
// per-item as non-retryable.
type StaticEngine struct {
	entries map[string]string
}

func NewStaticEngine(entries map[string]string) *StaticEngine {
	if entries == nil {
		entries = map[string]string{}
	}
	return &StaticEngine{entries: entries}
}

func staticKey(targetLang, text string) string {
	return targetLang + "\x00" + text
}

// Add registers a translation; meant for test setup.
func (e *StaticEngine) Add(targetLang, text, translated string) {
	e.entries[staticKey(targetLang, text)] = translated
}

func (e *StaticEngine) TranslateBatch(ctx context.Context, texts []string, targetLang, sourceLang string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(texts))
	for _, text := range texts {
		if translated, ok := e.entries[staticKey(targetLang, text)]; ok {
			out = append(out, Result{Text: translated})
			continue
		}
		out = append(out, Result{
			Err: fmt.Sprintf("no static translation for %q into %s", truncate(text, 40), targetLang),
		})
	}
	return out, nil
}

func (e *StaticEngine) Name() string    { return "static" }
func (e *StaticEngine) Version() string { return "1" }

// EchoEngine marks texts with the target language instead of translating
// them. Useful to exercise the full pipeline without an external service.
type EchoEngine struct{}

func NewEchoEngine() *EchoEngine { return &EchoEngine{} }

func (e *EchoEngine) TranslateBatch(ctx context.Context, texts []string, targetLang, sourceLang string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(texts))
	for _, text := range texts {
		out = append(out, Result{Text: "[" + strings.ToLower(targetLang) + "] " + text})
	}
	return out, nil
}

func (e *EchoEngine) Name() string    { return "echo" }
func (e *EchoEngine) Version() string { return "1" }

// truncate cuts s to at most n runes without splitting a multibyte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
