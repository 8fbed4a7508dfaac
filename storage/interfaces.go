package storage

import (
	"context"

	"venue-crawler/models"
)

// SiteWriter is the interface any storage backend must satisfy.
type SiteWriter interface {
	Write(ctx context.Context, sites []models.Site) error
	Close() error
}

var (
	_ SiteWriter = (*CSVWriter)(nil)
	_ SiteWriter = (*SQLWriter)(nil)
)
