package test_utils

import (
	"path/filepath"
	"testing"

	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/draft_cache"
)

// NewDraftCache opens a draft cache backed by a fresh SQLite file that is
// removed together with the test's temp dir.
func NewDraftCache(t *testing.T, clock utils.Clock) *draft_cache.CacheImpl {
	t.Helper()

	cache, err := draft_cache.Open(filepath.Join(t.TempDir(), "drafts.db"), clock)
	if err != nil {
		t.Fatalf("Failed to open draft cache: %v", err)
	}
	t.Cleanup(func() {
		cache.Close()
	})
	return cache
}
