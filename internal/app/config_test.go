package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

func TestLoadFallbackSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fallbacks.yaml")
	content := []byte("fallbacks:\n  de-AT: [de, en]\n  pt-BR:\n    - pt\n    - en\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	seed, err := LoadFallbackSeed(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string][]string{
		"de-AT": {"de", "en"},
		"pt-BR": {"pt", "en"},
	}
	if !reflect.DeepEqual(seed, want) {
		t.Fatalf("seed = %v, want %v", seed, want)
	}
}

func TestLoadFallbackSeedOptional(t *testing.T) {
	seed, err := LoadFallbackSeed("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if seed != nil {
		t.Fatalf("seed = %v, want nil", seed)
	}

	if _, err := LoadFallbackSeed("/does/not/exist.yaml"); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestWireClientsEngineRegistry(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	clients, err := wireClients(log, Config{EngineName: "static", ResolveCacheMode: "off"})
	if err != nil {
		t.Fatalf("wire clients: %v", err)
	}
	if clients.Engine == nil || clients.Engine.Name() != "static" {
		t.Fatalf("configured engine not selected")
	}
	for _, name := range []string{"echo", "static"} {
		if _, ok := clients.Registry.Get(name); !ok {
			t.Fatalf("engine %q not registered", name)
		}
	}

	if _, err := wireClients(log, Config{EngineName: "nope", ResolveCacheMode: "off"}); err == nil {
		t.Fatalf("unknown engine accepted")
	}
}
