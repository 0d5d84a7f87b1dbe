// Package writer implements AddElements (spec §6, C7): it turns elements
// into row-form mutations via a key package's ElementConverter and submits
// them through a store.BatchWriter, skipping (and logging) any element that
// fails to encode or that the store rejects rather than failing the whole
// call — mirroring how the teacher's generic repository treats a single bad
// item during BatchSave as a reason to retry or skip, not to abort.
package writer

import (
	"context"

	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
	"elementstore/internal/observability"
	"elementstore/store"
)

// Summary reports what AddElements actually did: how many elements were
// written, how many elements were skipped (encode failure or write
// rejection), and the first error encountered, for diagnostics.
type Summary struct {
	Written    int
	Skipped    int
	FirstError error
}

func (s *Summary) recordSkip(count int, err error) {
	s.Skipped += count
	if s.FirstError == nil {
		s.FirstError = err
	}
}

// Writer binds one schema-derived key package to a store.BatchWriter.
type Writer struct {
	converter keypkg.ElementConverter
	batcher   store.BatchWriter
	logger    *zap.Logger
	metrics   *observability.Metrics

	// batchSize is the pending-mutation count at which AddElements issues a
	// WriteBatch call; an edge adds its two mutations at once, so a batch
	// can hold batchSize+1. The store is expected to further chunk this if
	// its backend has a smaller native limit (DynamoDB's BatchWriteItem
	// takes at most 25 items).
	batchSize int
}

const defaultBatchSize = 200

func New(kp keypkg.KeyPackage, batcher store.BatchWriter, logger *zap.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{
		converter: kp.ElementConverter(),
		batcher:   batcher,
		logger:    logger,
		metrics:   metrics,
		batchSize: defaultBatchSize,
	}
}

// AddElements encodes every element to its row-form mutation(s) and submits
// them in batches. An element that fails to encode is skipped and logged;
// nothing it would have produced is sent. A batch the store rejects counts
// every element in that batch as skipped, and processing continues with the
// next batch rather than aborting the whole call.
func (w *Writer) AddElements(ctx context.Context, elements []graph.Element) Summary {
	var summary Summary
	var pending []store.Mutation
	var pendingCount int

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := w.batcher.WriteBatch(ctx, pending); err != nil {
			w.logger.Warn("batch write rejected, skipping elements in batch",
				zap.Int("elements", pendingCount),
				zap.Error(err),
			)
			summary.recordSkip(pendingCount, graphstoreerr.WrapStore(err, "writing batch"))
			w.observeWrite("rejected", pendingCount)
		} else {
			summary.Written += pendingCount
			w.observeWrite("ok", pendingCount)
		}
		pending = pending[:0]
		pendingCount = 0
	}

	for _, e := range elements {
		mutations, err := w.encode(e)
		if err != nil {
			w.logger.Warn("skipping element, failed to encode", zap.String("group", e.Group()), zap.Error(err))
			summary.recordSkip(1, err)
			w.observeSkip("encode_error")
			continue
		}
		pending = append(pending, mutations...)
		pendingCount++
		if len(pending) >= w.batchSize {
			flush()
		}
	}
	flush()

	return summary
}

func (w *Writer) observeWrite(result string, count int) {
	if w.metrics == nil || count == 0 {
		return
	}
	w.metrics.WritesTotal.WithLabelValues(result).Add(float64(count))
}

func (w *Writer) observeSkip(reason string) {
	if w.metrics == nil {
		return
	}
	w.metrics.WriteSkipsTotal.WithLabelValues(reason).Inc()
}

// encode converts one element into its one or two row-form mutations.
func (w *Writer) encode(e graph.Element) ([]store.Mutation, error) {
	key1, key2, err := w.converter.ToKeys(e)
	if err != nil {
		return nil, graphstoreerr.WrapCodec(err, "encoding keys for group %q", e.Group())
	}
	value, err := w.converter.ToValue(e)
	if err != nil {
		return nil, graphstoreerr.WrapCodec(err, "encoding value for group %q", e.Group())
	}
	mutations := make([]store.Mutation, 0, 2)
	mutations = append(mutations, store.Mutation{Key: key1, Value: value})
	if key2 != nil {
		mutations = append(mutations, store.Mutation{Key: *key2, Value: value})
	}
	return mutations, nil
}
