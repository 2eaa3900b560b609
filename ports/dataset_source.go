package ports

import (
	"context"

	"gprspc/domain/spc"
)

// DatasetSource loads the QA measurement table. Every call returns a fresh
// dataset so a session can reset by loading again.
type DatasetSource interface {
	Load(ctx context.Context) (*spc.Dataset, error)

	// Describe names the source for logs and summaries
	Describe() string
}
