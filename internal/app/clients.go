package app

import (
	"context"
	"fmt"

	"github.com/glotbridge/glotbridge-backend/internal/engine"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
	"github.com/glotbridge/glotbridge-backend/internal/stream"
)

// Clients are the external collaborators: the event sink, the worker
// wake bus, the resolve cache and the translation engine registry.
type Clients struct {
	Sink     stream.Sink
	Wake     stream.WakeBus
	Cache    services.ResolveCache
	Registry *engine.Registry
	Engine   engine.TranslationEngine
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var sink stream.Sink
	var wake stream.WakeBus
	if cfg.UseRedis() {
		s, err := stream.NewRedisSink(log)
		if err != nil {
			return Clients{}, fmt.Errorf("redis sink: %w", err)
		}
		sink = s
		b, err := stream.NewRedisWakeBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("redis wake bus: %w", err)
		}
		wake = b
	} else {
		log.Warn("REDIS_ADDR not set, events stay in the outbox and worker wake is in-process only")
		sink = nil
		wake = stream.NewLocalWakeBus()
	}

	var cache services.ResolveCache
	switch cfg.ResolveCacheMode {
	case "redis":
		rdb, err := stream.Dial()
		if err != nil {
			return Clients{}, fmt.Errorf("redis cache: %w", err)
		}
		cache = services.NewRedisResolveCache(rdb, cfg.ResolveCacheTTL, log)
	case "off":
		cache = noopCache{}
	default:
		cache = services.NewMemoryResolveCache()
	}

	registry := engine.NewRegistry()
	if err := registry.Register(engine.NewEchoEngine()); err != nil {
		return Clients{}, err
	}
	if err := registry.Register(engine.NewStaticEngine(nil)); err != nil {
		return Clients{}, err
	}
	if oa, err := engine.NewOpenAIEngine(log); err != nil {
		log.Warn("openai engine unavailable", "error", err)
	} else if err := registry.Register(oa); err != nil {
		return Clients{}, err
	}

	eng, ok := registry.Get(cfg.EngineName)
	if !ok {
		return Clients{}, fmt.Errorf("unknown engine %q, have %v", cfg.EngineName, registry.Names())
	}

	return Clients{
		Sink:     sink,
		Wake:     wake,
		Cache:    cache,
		Registry: registry,
		Engine:   eng,
	}, nil
}

type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string) (*services.ResolveResult, bool) {
	return nil, false
}
func (noopCache) Set(_ context.Context, _ string, _ *services.ResolveResult) {}
func (noopCache) Delete(_ context.Context, _ string)                         {}
