package print

import (
	"context"

	"github.com/google/uuid"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
)

// TrialFetcher loads trial records by NCI ID.
type TrialFetcher interface {
	FetchTrials(ctx context.Context, ids []string) ([]trial.Trial, error)
}

// Renderer turns a filtered, ordered page model into HTML.
type Renderer interface {
	Render(ctx context.Context, page printdoc.Page) (string, error)
}

// PageCache persists rendered pages. Get reports a missing page with found == false.
type PageCache interface {
	Save(ctx context.Context, key uuid.UUID, metadata, content string) error
	Get(ctx context.Context, key uuid.UUID) (content string, found bool, err error)
}
