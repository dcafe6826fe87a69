package engine

import (
	"context"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewEchoEngine()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(NewEchoEngine()); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
	if _, ok := r.Get("echo"); !ok {
		t.Fatalf("expected echo engine")
	}
	if _, ok := r.Get("nope"); ok {
		t.Fatalf("unexpected engine hit")
	}
	if names := r.Names(); len(names) != 1 || names[0] != "echo" {
		t.Fatalf("Names = %v", names)
	}
}

func TestStaticEngine(t *testing.T) {
	e := NewStaticEngine(nil)
	e.Add("de", "Hello", "Hallo")

	results, err := e.TranslateBatch(context.Background(), []string{"Hello", "Goodbye"}, "de", "en")
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per input, got %d", len(results))
	}
	if !results[0].OK() || results[0].Text != "Hallo" {
		t.Fatalf("result 0 = %+v", results[0])
	}
	if results[1].OK() {
		t.Fatalf("unknown text should fail per-item")
	}
	if results[1].Retryable {
		t.Fatalf("static misses are not retryable")
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	if got := truncate("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語のテキスト", 3); got != "日本語…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 40); got != "short" {
		t.Fatalf("truncate changed %q to %q", "short", got)
	}
}

func TestEchoEngine(t *testing.T) {
	e := NewEchoEngine()
	results, err := e.TranslateBatch(context.Background(), []string{"Hi"}, "DE", "en")
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if results[0].Text != "[de] Hi" {
		t.Fatalf("echo result = %q", results[0].Text)
	}
}

func TestParseTranslationsFenced(t *testing.T) {
	out, err := parseTranslations("```json\n[\"Hallo\",\"Welt\"]\n```")
	if err != nil {
		t.Fatalf("parseTranslations: %v", err)
	}
	if len(out) != 2 || out[0] != "Hallo" {
		t.Fatalf("parseTranslations = %v", out)
	}
}
