package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/theapemachine/concierge/pkg/agent"
	"github.com/theapemachine/concierge/pkg/knowledge"
	"github.com/theapemachine/concierge/pkg/logging"
	"github.com/theapemachine/concierge/pkg/memory"
	"github.com/theapemachine/concierge/pkg/provider"
	"github.com/theapemachine/concierge/pkg/retriever"
	"github.com/theapemachine/concierge/pkg/tools"
	"github.com/theapemachine/concierge/pkg/vector"
)

// runtime bundles everything a command needs to serve conversations.
type runtime struct {
	embedder  provider.Embedder
	generator provider.Generator
	index     *vector.InMemoryIndex
	store     *memory.InMemoryStore
	registry  *tools.Registry
	agent     *agent.Agent
	audit     *logging.Audit
	watcher   *knowledge.Watcher
}

func buildRuntime(ctx context.Context) (*runtime, error) {
	audit := logging.NewAudit(viper.GetString("audit.path"))
	embedder, generator := buildProviders()

	index := vector.NewInMemoryIndex()
	if err := loadIndex(ctx, index, embedder); err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(
		tools.WithTimeout(viper.GetDuration("tools.timeout")),
		tools.WithAudit(audit),
	)

	for _, tool := range []tools.Tool{tools.NewOCRTool(), tools.NewLogisticsTool()} {
		if err := registry.Register(ctx, tool); err != nil {
			return nil, err
		}
	}

	store := memory.NewInMemoryStore(
		memory.WithMaxHistory(viper.GetInt("memory.max_history")),
		memory.WithSummaryThreshold(viper.GetInt("memory.summary_threshold")),
	)

	topK := viper.GetInt("retriever.top_k")

	rtrvr := retriever.New(
		embedder, index,
		retriever.WithTopK(topK),
		retriever.WithCache(10*time.Minute),
	)

	rt := &runtime{
		embedder:  embedder,
		generator: generator,
		index:     index,
		store:     store,
		registry:  registry,
		audit:     audit,
		agent: agent.New(
			rtrvr, store, registry, generator,
			agent.WithTopK(topK),
			agent.WithAudit(audit),
		),
	}

	rt.watchKnowledge(ctx)

	return rt, nil
}

/*
buildProviders selects the model backend. The literal "ollama" as base
URL switches to a local Ollama instance with its own model defaults;
anything else is treated as an OpenAI-compatible endpoint.
*/
func buildProviders() (provider.Embedder, provider.Generator) {
	if viper.GetString("provider.base_url") == "ollama" {
		prvdr := provider.NewOllamaProvider()
		return prvdr, prvdr
	}

	prvdr := provider.NewOpenAIProvider(
		provider.WithBaseURL(viper.GetString("provider.base_url")),
		provider.WithChatModel(viper.GetString("provider.chat_model")),
		provider.WithEmbedModel(viper.GetString("provider.embed_model")),
		provider.WithRequestTimeout(viper.GetDuration("provider.timeout")),
	)

	return prvdr, prvdr
}

/*
loadIndex fills the vector index, preferring a SQLite snapshot when one
is configured and readable, and falling back to embedding the knowledge
base from scratch.
*/
func loadIndex(ctx context.Context, index *vector.InMemoryIndex, embedder provider.Embedder) error {
	snapshotPath := viper.GetString("index.snapshot")

	if snapshotPath != "" && checkFileExists(snapshotPath) {
		err := loadSnapshot(snapshotPath, index)
		if err == nil {
			return nil
		}

		log.Warn("index snapshot unusable, rebuilding", "path", snapshotPath, "error", err)
	}

	return rebuildIndex(ctx, index, embedder)
}

func loadSnapshot(path string, index *vector.InMemoryIndex) error {
	store, err := vector.NewSnapshotStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Load()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return fmt.Errorf("snapshot %s holds no entries", path)
	}

	if err := index.Swap(entries); err != nil {
		return err
	}

	log.Info("loaded index snapshot", "path", path, "entries", len(entries))

	return nil
}

/*
rebuildIndex embeds the knowledge base and swaps it into the index
atomically, so in-flight retrievals keep reading the previous entries.
A configured snapshot path is refreshed afterwards.
*/
func rebuildIndex(ctx context.Context, index *vector.InMemoryIndex, embedder provider.Embedder) error {
	entries, err := knowledge.Load(viper.GetString("knowledge.path"))
	if err != nil {
		return err
	}

	indexed, err := knowledge.NewBuilder(embedder).Build(ctx, entries)
	if err != nil {
		return err
	}

	if err := index.Swap(indexed); err != nil {
		return err
	}

	log.Info("knowledge base indexed", "entries", len(indexed))

	if snapshotPath := viper.GetString("index.snapshot"); snapshotPath != "" {
		if err := saveSnapshot(snapshotPath, indexed); err != nil {
			log.Warn("failed to persist index snapshot", "error", err)
		}
	}

	return nil
}

func saveSnapshot(path string, entries []vector.Entry) error {
	store, err := vector.NewSnapshotStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(entries)
}

// Close releases the runtime's background resources.
func (rt *runtime) Close() {
	if rt.watcher != nil {
		if err := rt.watcher.Stop(); err != nil {
			log.Warn("failed to stop knowledge watcher", "error", err)
		}
	}

	rt.audit.Sync()
}

// watchKnowledge rebuilds the index when the configured knowledge file
// changes on disk. Without a configured path there is nothing to watch.
func (rt *runtime) watchKnowledge(ctx context.Context) {
	path := viper.GetString("knowledge.path")
	if path == "" {
		return
	}

	watcher, err := knowledge.NewWatcher(path, func(ctx context.Context) error {
		return rebuildIndex(ctx, rt.index, rt.embedder)
	})

	if err != nil {
		log.Warn("knowledge watcher unavailable", "path", path, "error", err)
		return
	}

	if err := watcher.Watch(ctx); err != nil {
		log.Warn("knowledge watcher failed to start", "path", path, "error", err)
		return
	}

	rt.watcher = watcher
}
