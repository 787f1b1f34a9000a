package health

import "context"

// CachePinger checks page store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// TrialsAPIPinger checks that the clinical trials API answers.
type TrialsAPIPinger interface {
	Ping(ctx context.Context) error
}
