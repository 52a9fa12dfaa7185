package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	openaisdk "github.com/openai/openai-go/v3"

	rediscache "github.com/veracity-ai/veracity/contrib/cache/redis"
	openaiembed "github.com/veracity-ai/veracity/contrib/embedder/openai"
	"github.com/veracity-ai/veracity/contrib/provider/claude"
	"github.com/veracity-ai/veracity/contrib/provider/gemini"
	"github.com/veracity-ai/veracity/contrib/provider/openai"
	mongorec "github.com/veracity-ai/veracity/contrib/recorder/mongo"
	pgstore "github.com/veracity-ai/veracity/contrib/store/pg"

	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/llm"
	"github.com/veracity-ai/veracity/middleware"
	"github.com/veracity-ai/veracity/pkg/logging"
	"github.com/veracity-ai/veracity/rag/index"
	"github.com/veracity-ai/veracity/rag/pipeline"
	"github.com/veracity-ai/veracity/vector"
)

// snapshotName keys the persisted index in whichever store backs it.
const snapshotName = "default"

// localSnapshotPath is the fallback location when no database is configured.
const localSnapshotPath = ".veracity/index.json"

// buildClient constructs the configured provider wrapped in the standard
// middleware chain. The returned closer releases provider connections and may
// be nil.
func buildClient(ctx context.Context, cfg *config.Config) (llm.Client, func() error, error) {
	var base llm.Client
	var closer func() error

	switch cfg.Provider {
	case config.ProviderClaude:
		c := claude.DefaultConfig(cfg.AnthropicKey)
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		base = claude.New(c)
	case config.ProviderGemini:
		c := gemini.DefaultConfig(cfg.GeminiKey)
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		provider, err := gemini.New(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		base = provider
		closer = provider.Close
	default:
		c := openai.DefaultConfig().WithAPIKey(cfg.OpenAIKey)
		if cfg.Model != "" {
			c.WithModel(cfg.Model)
		}
		base = openai.New(c)
	}

	client := middleware.Chain(base,
		middleware.NewLogger(nil),
		middleware.NewRetry(3, time.Second),
	)
	return client, closer, nil
}

func buildEmbedder(cfg *config.Config) vector.Embedder {
	return openaiembed.New(cfg.OpenAIKey, "", openaisdk.EmbeddingModel(cfg.EmbeddingModel), 0)
}

// snapshotStore picks PostgreSQL when configured, a local JSON file
// otherwise.
func snapshotStore(ctx context.Context, cfg *config.Config) (index.SnapshotStore, func() error, error) {
	if cfg.Pg.Enabled() {
		store, err := pgstore.New(ctx, &pgstore.Config{DSN: cfg.Pg.DSN, Table: cfg.Pg.Table})
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot store: %w", err)
		}
		return store, store.Close, nil
	}
	return &fileSnapshotStore{dir: filepath.Dir(localSnapshotPath)}, nil, nil
}

// buildIndexOptions wires the optional Redis embedding cache.
func buildIndexOptions(ctx context.Context, cfg *config.Config) ([]index.Option, func() error, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil, nil
	}
	cache, err := rediscache.New(ctx, &rediscache.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
		TTL:  cfg.Redis.TTL,
		Prefix: fmt.Sprintf("veracity:embedding:%s:",
			nonEmpty(cfg.EmbeddingModel, string(openaiembed.DefaultModel))),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return []index.Option{index.WithEmbeddingCache(cache)}, cache.Close, nil
}

// buildRecorder wires the optional MongoDB run recorder.
func buildRecorder(ctx context.Context, cfg *config.Config) ([]pipeline.Option, func() error, error) {
	if !cfg.Mongo.Enabled() {
		return nil, nil, nil
	}
	rec, err := mongorec.New(ctx, &mongorec.Config{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open run recorder: %w", err)
	}
	closer := func() error { return rec.Close(context.Background()) }
	return []pipeline.Option{pipeline.WithRecorder(rec)}, closer, nil
}

// loadIndex restores the persisted index, or builds it from the corpus when
// no snapshot exists yet.
func loadIndex(ctx context.Context, cfg *config.Config) (*index.Index, error) {
	embedder := buildEmbedder(cfg)

	store, closeStore, err := snapshotStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		defer closeStore()
	}

	snap, err := store.Load(ctx, snapshotName)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return index.FromSnapshot(snap, embedder)
	}

	logging.Logger().Info("no index snapshot found, building from corpus",
		"corpus", cfg.CorpusDir)
	return buildIndex(ctx, cfg)
}

// buildIndex embeds the corpus and persists the resulting snapshot.
func buildIndex(ctx context.Context, cfg *config.Config) (*index.Index, error) {
	opts, closeCache, err := buildIndexOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeCache != nil {
		defer closeCache()
	}

	idx, err := index.Build(ctx, cfg.CorpusDir, buildEmbedder(cfg), opts...)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := snapshotStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		defer closeStore()
	}
	if err := store.Save(ctx, snapshotName, idx.Snapshot()); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return idx, nil
}

// buildPipeline assembles the full pipeline for ask and compare.
func buildPipeline(ctx context.Context, cfg *config.Config, retriever pipeline.Retriever) (*pipeline.Pipeline, func(), error) {
	client, closeClient, err := buildClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithTopK(cfg.TopK),
		pipeline.WithCallTimeout(cfg.CallTimeout),
	}
	recOpts, closeRecorder, err := buildRecorder(ctx, cfg)
	if err != nil {
		if closeClient != nil {
			closeClient()
		}
		return nil, nil, err
	}
	opts = append(opts, recOpts...)

	p, err := pipeline.New(pipeline.Clients{Default: client}, retriever, opts...)
	if err != nil {
		if closeClient != nil {
			closeClient()
		}
		if closeRecorder != nil {
			closeRecorder()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if closeClient != nil {
			if err := closeClient(); err != nil {
				logging.Logger().Warn("provider close failed", "error", err)
			}
		}
		if closeRecorder != nil {
			if err := closeRecorder(); err != nil {
				logging.Logger().Warn("recorder close failed", "error", err)
			}
		}
	}
	return p, cleanup, nil
}

func nonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// fileSnapshotStore keeps the snapshot as a JSON file. It serves single-user
// local setups where a database would be overkill.
type fileSnapshotStore struct {
	dir string
}

func (s *fileSnapshotStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *fileSnapshotStore) Save(ctx context.Context, name string, snap *index.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *fileSnapshotStore) Load(ctx context.Context, name string) (*index.Snapshot, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap index.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
