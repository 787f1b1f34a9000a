package printcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
)

func TestNewFileCache_RequiresDir(t *testing.T) {
	if _, err := NewFileCache("", zap.NewNop()); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestFileCache_SaveAndGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	cache, err := NewFileCache(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := cache.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	key := uuid.New()
	if err := cache.Save(context.Background(), key, `{"x":true}`, "<html/>"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	md, err := os.ReadFile(filepath.Join(dir, key.String()+"-metadata"))
	if err != nil || string(md) != `{"x":true}` {
		t.Errorf("metadata file = %q, %v", md, err)
	}

	content, found, err := cache.Get(context.Background(), key)
	if err != nil || !found || content != "<html/>" {
		t.Errorf("Get = %q, %v, %v", content, found, err)
	}
}

func TestFileCache_WriteOnce(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	key := uuid.New()
	if err := cache.Save(context.Background(), key, "{}", "first"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	err = cache.Save(context.Background(), key, "{}", "second")
	if !errors.Is(err, domain.ErrPrintSaveFailure) || !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("err = %v, want save failure on existing key", err)
	}
	content, _, _ := cache.Get(context.Background(), key)
	if content != "first" {
		t.Errorf("content = %q, want first", content)
	}
}

func TestFileCache_ConcurrentWritersOneWins(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	key := uuid.New()

	const writers = 16
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = cache.write(key, false, "page-"+strconv.Itoa(i))
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != -1 {
				t.Fatalf("writers %d and %d both succeeded", winner, i)
			}
			winner = i
		case !errors.Is(err, db.ErrKeyExists):
			t.Errorf("writer %d: err = %v, want ErrKeyExists", i, err)
		}
	}
	if winner == -1 {
		t.Fatal("no writer succeeded")
	}
	content, _, _ := cache.Get(context.Background(), key)
	if content != "page-"+strconv.Itoa(winner) {
		t.Errorf("content = %q, want the winner's page", content)
	}
}

func TestFileCache_GetMissing(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	_, found, err := cache.Get(context.Background(), uuid.New())
	if err != nil || found {
		t.Errorf("Get = %v, %v; want miss", found, err)
	}
}

func TestFileCache_PingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	cache, err := NewFileCache(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := cache.Ping(context.Background()); err == nil {
		t.Error("expected ping error for removed directory")
	}
}
