// Package indexsync propagates primary company writes into the search index.
//
// Propagation is at-most-once effort: each call happens synchronously after
// its primary write succeeds, and a failure is logged and counted but never
// retried, rolled back, or surfaced to the caller. The primary row always
// stands; the index drifts until the next successful write touches the same
// document. There is no background repair.
package indexsync

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"stamply/internal/company"
	"stamply/internal/company/search"
	"stamply/internal/platform/metrics"
)

// Adapter issues the matching index call for every primary company mutation.
type Adapter struct {
	index   search.Index
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(index search.Index, m *metrics.Metrics, logger *slog.Logger) *Adapter {
	return &Adapter{index: index, metrics: m, logger: logger}
}

// Project builds the index document from a company's public fields.
func Project(c company.Company) search.Document {
	return search.Document{
		ID:          c.ID.String(),
		Title:       c.Title,
		URL:         c.URL,
		Description: c.Description,
	}
}

// OnCreate mirrors a freshly inserted company into the index.
func (a *Adapter) OnCreate(ctx context.Context, c company.Company) {
	if err := a.index.Create(ctx, Project(c)); err != nil {
		a.swallow("create", c.ID.String(), err)
	}
}

// OnUpdate mirrors an updated company into the index.
func (a *Adapter) OnUpdate(ctx context.Context, c company.Company) {
	if err := a.index.Update(ctx, Project(c)); err != nil {
		a.swallow("update", c.ID.String(), err)
	}
}

// OnDelete removes the projection of a deleted company. On failure the ghost
// document keeps turning up in searches until something writes over it.
func (a *Adapter) OnDelete(ctx context.Context, id uuid.UUID) {
	if err := a.index.Delete(ctx, id.String()); err != nil {
		a.swallow("delete", id.String(), err)
	}
}

func (a *Adapter) swallow(op, id string, err error) {
	if a.metrics != nil {
		a.metrics.IndexSyncFailures.WithLabelValues(op).Inc()
	}
	a.logger.Error("index sync failed, primary and index have diverged",
		"op", op,
		"company_id", id,
		"error", err,
	)
}
