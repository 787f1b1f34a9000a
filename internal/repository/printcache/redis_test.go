package printcache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/db"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
)

type mockKV struct {
	mu      sync.Mutex
	getFn   func(ctx context.Context, key string) ([]byte, error)
	setNXFn func(ctx context.Context, key string, value []byte) error
	setKeys []string
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	return m.getFn(ctx, key)
}

func (m *mockKV) SetNX(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.setKeys = append(m.setKeys, key)
	m.mu.Unlock()
	return m.setNXFn(ctx, key, value)
}

func TestRedisCache_Save(t *testing.T) {
	key := uuid.New()
	stored := map[string]string{}
	var mu sync.Mutex
	kv := &mockKV{setNXFn: func(_ context.Context, k string, v []byte) error {
		mu.Lock()
		defer mu.Unlock()
		stored[k] = string(v)
		return nil
	}}
	cache := NewRedisCache(kv, "ctsprint:", zap.NewNop())

	if err := cache.Save(context.Background(), key, `{"m":1}`, "<p/>"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stored["ctsprint:"+key.String()] != "<p/>" {
		t.Errorf("content = %q", stored["ctsprint:"+key.String()])
	}
	if stored["ctsprint:"+key.String()+"-metadata"] != `{"m":1}` {
		t.Errorf("metadata = %q", stored["ctsprint:"+key.String()+"-metadata"])
	}
}

func TestRedisCache_SaveExistingKey(t *testing.T) {
	key := uuid.New()
	kv := &mockKV{setNXFn: func(_ context.Context, k string, _ []byte) error {
		if k == key.String()+"-metadata" {
			return db.ErrKeyExists
		}
		return nil
	}}
	cache := NewRedisCache(kv, "", zap.NewNop())

	err := cache.Save(context.Background(), key, "{}", "<p/>")
	var saveErr *domain.PrintSaveFailureError
	if !errors.As(err, &saveErr) {
		t.Fatalf("err = %v, want PrintSaveFailureError", err)
	}
	if !saveErr.Metadata || !errors.Is(err, db.ErrKeyExists) {
		t.Errorf("saveErr = %+v", saveErr)
	}
	if len(kv.setKeys) != 2 {
		t.Errorf("SetNX calls = %d, want 2", len(kv.setKeys))
	}
}

func TestRedisCache_Get(t *testing.T) {
	key := uuid.New()
	tests := []struct {
		name      string
		getErr    error
		value     string
		wantFound bool
		wantErr   error
	}{
		{"hit", nil, "<p/>", true, nil},
		{"miss", db.ErrKeyNotFound, "", false, nil},
		{"store error", &db.Error{Op: db.OpGet, Err: errors.New("conn closed")}, "", false, domain.ErrPrintFetchFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := &mockKV{getFn: func(_ context.Context, k string) ([]byte, error) {
				if k != key.String() {
					t.Errorf("key = %q", k)
				}
				if tc.getErr != nil {
					return nil, tc.getErr
				}
				return []byte(tc.value), nil
			}}
			cache := NewRedisCache(kv, "", zap.NewNop())

			content, found, err := cache.Get(context.Background(), key)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if found != tc.wantFound || content != tc.value {
				t.Errorf("Get = %q, %v", content, found)
			}
		})
	}
}
