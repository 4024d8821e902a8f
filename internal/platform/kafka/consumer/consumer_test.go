package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"stamply/internal/platform/logger"
)

// scriptedHandler fails for the configured offsets and records everything it
// was asked to handle.
type scriptedHandler struct {
	failAt  map[int64]bool
	handled []int64
}

func (h *scriptedHandler) Handle(_ context.Context, msg *Message) error {
	h.handled = append(h.handled, msg.Offset)
	if h.failAt[msg.Offset] {
		return errors.New("store unavailable")
	}
	return nil
}

func records(offsets ...int64) []*kgo.Record {
	out := make([]*kgo.Record, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, &kgo.Record{Topic: "identity-events", Partition: 0, Offset: off})
	}
	return out
}

func offsetsOf(recs []*kgo.Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Offset)
	}
	return out
}

func TestHandleBatchCommitsAllOnSuccess(t *testing.T) {
	handler := &scriptedHandler{}
	done := handleBatch(context.Background(), handler, logger.New(0), records(1, 2, 3))

	assert.Equal(t, []int64{1, 2, 3}, offsetsOf(done))
	assert.Equal(t, []int64{1, 2, 3}, handler.handled)
}

// TestHandleBatchStopsAtFirstFailure pins the redelivery guarantee: once a
// record fails, no later record may be committed. Committing a later offset
// on the same partition would advance the group past the failed record and
// the activation it carries would be lost for good.
func TestHandleBatchStopsAtFirstFailure(t *testing.T) {
	handler := &scriptedHandler{failAt: map[int64]bool{2: true}}
	done := handleBatch(context.Background(), handler, logger.New(0), records(1, 2, 3))

	assert.Equal(t, []int64{1}, offsetsOf(done), "only records before the failure commit")
	assert.Equal(t, []int64{1, 2}, handler.handled, "processing stops at the failure")
}

func TestHandleBatchFailureOnFirstRecordCommitsNothing(t *testing.T) {
	handler := &scriptedHandler{failAt: map[int64]bool{1: true}}
	done := handleBatch(context.Background(), handler, logger.New(0), records(1, 2, 3))

	require.Empty(t, done)
	assert.Equal(t, []int64{1}, handler.handled)
}

func TestHandleBatchEmptyPoll(t *testing.T) {
	handler := &scriptedHandler{}
	done := handleBatch(context.Background(), handler, logger.New(0), nil)
	assert.Empty(t, done)
}
