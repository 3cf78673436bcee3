package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("VECTOR_SIZE", "")
	t.Setenv("MAX_CHUNK_SIZE", "")
	t.Setenv("OVERFETCH_FACTOR", "")
	t.Setenv("MAX_CHUNKS_PER_MERGE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VectorSize != 768 {
		t.Fatalf("expected default vector size 768, got %d", cfg.VectorSize)
	}
	if cfg.MaxChunkSize != 5000 {
		t.Fatalf("expected default max chunk size 5000, got %d", cfg.MaxChunkSize)
	}
	if cfg.OverfetchFactor != 5 {
		t.Fatalf("expected default overfetch factor 5, got %d", cfg.OverfetchFactor)
	}
	if cfg.MaxChunksPerMerge != 5 {
		t.Fatalf("expected default merge cap 5, got %d", cfg.MaxChunksPerMerge)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RetrievalTopK)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("QDRANT_COLLECTION", "corpus_v2")
	t.Setenv("INGEST_BATCH_SIZE", "25")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantCollection != "corpus_v2" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
	if cfg.IngestBatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.IngestBatchSize)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.RateLimitPerSecond)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("INGEST_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IngestBatchSize != 50 {
		t.Fatalf("expected fallback batch size 50, got %d", cfg.IngestBatchSize)
	}
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "qdrant_collection: yaml_collection\nretrieval_top_k: 9\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("QDRANT_COLLECTION", "env_collection")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantCollection != "yaml_collection" {
		t.Fatalf("expected yaml to win over env, got %q", cfg.QdrantCollection)
	}
	if cfg.RetrievalTopK != 9 {
		t.Fatalf("expected top k 9 from yaml, got %d", cfg.RetrievalTopK)
	}
	// Fields absent from the file keep their env/default values.
	if cfg.VectorSize != 768 {
		t.Fatalf("expected vector size default preserved, got %d", cfg.VectorSize)
	}
}

func TestLoadFailsOnMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
