package printdoc

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewKey_Version4AndUnique(t *testing.T) {
	seen := make(map[uuid.UUID]struct{})
	for range 100 {
		key, err := NewKey()
		if err != nil {
			t.Fatalf("NewKey: %v", err)
		}
		if key.Version() != 4 {
			t.Fatalf("version = %d, want 4", key.Version())
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %s", key)
		}
		seen[key] = struct{}{}
	}
}

func TestNew_InjectsDisplayURL(t *testing.T) {
	content := `<a href="${generatePrintURL}">print</a> <span>${generatePrintURL}</span>`
	doc, err := New(content, `{"a":1}`, "/CTS.Print/Display?printid=%s")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := "/CTS.Print/Display?printid=" + doc.Key.String()
	if strings.Contains(doc.Content, URLPlaceholder) {
		t.Error("placeholder not replaced")
	}
	if strings.Count(doc.Content, want) != 2 {
		t.Errorf("content = %q, want two occurrences of %q", doc.Content, want)
	}
	if doc.Metadata != `{"a":1}` {
		t.Errorf("Metadata = %q", doc.Metadata)
	}
}

func TestKeys(t *testing.T) {
	key := uuid.MustParse("6f1c3b9a-2d4e-4f6a-8b1c-0d2e3f4a5b6c")
	if got := ContentKey(key); got != "6f1c3b9a-2d4e-4f6a-8b1c-0d2e3f4a5b6c" {
		t.Errorf("ContentKey = %q", got)
	}
	if got := MetadataKey(key); got != "6f1c3b9a-2d4e-4f6a-8b1c-0d2e3f4a5b6c-metadata" {
		t.Errorf("MetadataKey = %q", got)
	}
}
