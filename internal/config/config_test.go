package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %s", cfg.APIPort)
	}
	if cfg.ChunkSize != 900 || cfg.ChunkOverlap != 150 {
		t.Fatalf("unexpected chunking defaults: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RAGRetrievalMode != "hybrid" || cfg.RAGFusionRRFK != 60 {
		t.Fatalf("unexpected retrieval defaults: %s/%d", cfg.RAGRetrievalMode, cfg.RAGFusionRRFK)
	}
	if cfg.RAGContextMaxChars != 24000 || cfg.RAGContextChunkChars != 1200 {
		t.Fatalf("unexpected context defaults: %d/%d", cfg.RAGContextMaxChars, cfg.RAGContextChunkChars)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("RAG_TOP_K", "3")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("expected api port override, got %s", cfg.APIPort)
	}
	if cfg.RAGTopK != 3 {
		t.Fatalf("expected top_k override, got %d", cfg.RAGTopK)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("RAG_TOP_K", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RAGTopK != 8 {
		t.Fatalf("expected fallback top_k 8, got %d", cfg.RAGTopK)
	}
	if cfg.APIRateLimitRPS != 10 {
		t.Fatalf("expected fallback rps 10, got %v", cfg.APIRateLimitRPS)
	}
}
