// Package printdoc defines the cached print page.
package printdoc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// URLPlaceholder is replaced in rendered pages with the page's own display URL.
const URLPlaceholder = "${generatePrintURL}"

// MetadataSuffix names the sibling object that stores a page's metadata.
const MetadataSuffix = "-metadata"

// Document is a rendered print page. Documents are written once and never updated.
type Document struct {
	Key      uuid.UUID
	Content  string
	Metadata string
}

// NewKey draws a random version 4 key.
func NewKey() (uuid.UUID, error) {
	key, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate print key: %w", err)
	}
	return key, nil
}

// New builds a document under a fresh key, substituting the display URL
// (displayFormat applied to the key) for URLPlaceholder in content.
func New(content, metadata, displayFormat string) (Document, error) {
	key, err := NewKey()
	if err != nil {
		return Document{}, err
	}
	url := fmt.Sprintf(displayFormat, key.String())
	return Document{
		Key:      key,
		Content:  strings.ReplaceAll(content, URLPlaceholder, url),
		Metadata: metadata,
	}, nil
}

// ContentKey is the object key holding the page HTML.
func ContentKey(key uuid.UUID) string { return key.String() }

// MetadataKey is the object key holding the page metadata.
func MetadataKey(key uuid.UUID) string { return key.String() + MetadataSuffix }
