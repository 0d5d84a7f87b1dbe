package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/internal/config"
	"elementstore/internal/graphstoreerr"
	"elementstore/internal/observability"
)

// shardKey is the fixed DynamoDB partition key every item shares; the sort
// key carries the full ordered byte sequence the RangeFactory reasons
// about, so a Query's KeyConditionExpression on SK BETWEEN is exactly the
// byte range a key package produced. A production deployment would likely
// shard PK further (e.g. by group) to spread write throughput; this
// reference binding keeps one shard, documented as a known limitation.
const shardKey = "elements"

const (
	attrPK  = "PK"
	attrSK  = "SK"
	attrCF  = "ColFamily"
	attrVal = "Value"
)

// DynamoStore implements Scanner and BatchWriter against a single DynamoDB
// table whose sort key is the row-range-comparable byte sequence built by
// encodeSortKey.
type DynamoStore struct {
	client  *dynamodb.Client
	table   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
}

var (
	_ Scanner     = (*DynamoStore)(nil)
	_ BatchWriter = (*DynamoStore)(nil)
)

// NewDynamoStore wraps a dynamodb.Client for the named table. Store calls
// are routed through a circuit breaker, configured from cb, so a
// struggling table degrades callers with StoreError quickly instead of
// piling up latency.
func NewDynamoStore(client *dynamodb.Client, table string, cb config.CircuitBreak, logger *zap.Logger, metrics *observability.Metrics) *DynamoStore {
	minRequests := cb.MinimumRequests
	if minRequests == 0 {
		minRequests = 5
	}
	failureRatio := cb.FailureRatio
	if failureRatio == 0 {
		failureRatio = 0.5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dynamo-store:" + table,
		MaxRequests: cb.HalfOpenRequests,
		Timeout:     cb.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= minRequests && float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return &DynamoStore{
		client:  client,
		table:   table,
		breaker: breaker,
		logger:  logger,
		tracer:  otel.Tracer("elementstore/store"),
		metrics: metrics,
	}
}

// observe records a scan-page outcome if metrics were configured.
func (s *DynamoStore) observe(result string, itemCount int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ScansTotal.WithLabelValues(result).Inc()
	if itemCount > 0 {
		s.metrics.ScanRowsTotal.WithLabelValues("all").Add(float64(itemCount))
	}
}

// encodeSortKey joins row, column family, qualifier, visibility and an
// 8-byte big-endian timestamp into one byte-lexicographically comparable
// sort key — appending more fields after a KeyRange boundary never moves a
// key outside the bound the boundary was built to express, since every
// KeyRange already accounts for that by appending its own terminator bytes.
// The timestamp alone is not enough to keep two writes to the same
// aggregation key distinct: codec timestamps default to millisecond
// resolution (graph/keypkg/byteentity/codec.go), so two PutItem calls for
// the same (row, colFamily, colQualifier, colVisibility) within one
// millisecond would collide on this sort key and the second overwrites the
// first instead of leaving both cells for AggregationStage to merge at
// read time. writeChunk appends a per-write tiebreak suffix after this for
// exactly that reason; encodeSortKey itself stays a pure function of the
// logical Key so its round-trip tests don't depend on write-time state.
func encodeSortKey(k graph.Key) []byte {
	buf := make([]byte, 0, len(k.Row)+len(k.ColFamily)+len(k.ColQualifier)+len(k.ColVisibility)+11)
	buf = append(buf, k.Row...)
	buf = append(buf, 0x00)
	buf = append(buf, k.ColFamily...)
	buf = append(buf, 0x00)
	buf = append(buf, k.ColQualifier...)
	buf = append(buf, 0x00)
	buf = append(buf, k.ColVisibility...)
	buf = append(buf, 0x00)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(k.Timestamp))
	buf = append(buf, ts[:]...)
	return buf
}

// tiebreakSortKey appends a fresh random suffix to an encoded sort key so
// two mutations that land on the same row/colFamily/colQualifier/
// colVisibility/timestamp tuple still occupy distinct DynamoDB items
// instead of one PutItem overwriting the other. decodeSortKey ignores
// anything past the 8-byte timestamp, and AggregationStage merges rows by
// (row, colFamily, colQualifier, colVisibility) regardless of this
// suffix (spec §3 Invariant 3), so it never changes element identity —
// it only keeps dual writes of one aggregation key from silently losing
// one side.
func tiebreakSortKey(sk []byte) []byte {
	id := uuid.New()
	return append(sk, id[:]...)
}

type dynamoRawSource struct {
	ctx     context.Context
	store   *DynamoStore
	ranges  []graph.KeyRange
	rangeIx int

	buffer   []RawEntry
	bufferIx int
	lastKey  map[string]types.AttributeValue
	started  bool
}

func (s *DynamoStore) Scan(ctx context.Context, ranges []graph.KeyRange) (RawSource, error) {
	return &dynamoRawSource{ctx: ctx, store: s, ranges: ranges}, nil
}

func (r *dynamoRawSource) Next() (RawEntry, error) {
	for {
		if r.bufferIx < len(r.buffer) {
			entry := r.buffer[r.bufferIx]
			r.bufferIx++
			return entry, nil
		}
		if r.started && r.lastKey == nil {
			// current range fully paged through
			r.rangeIx++
			r.started = false
		}
		if r.rangeIx >= len(r.ranges) {
			return RawEntry{}, ErrDone
		}
		if err := r.fetchPage(r.ranges[r.rangeIx]); err != nil {
			return RawEntry{}, err
		}
		r.started = true
	}
}

func (r *dynamoRawSource) fetchPage(rng graph.KeyRange) error {
	ctx, span := r.store.tracer.Start(r.ctx, "store.Scan.page")
	defer span.End()
	span.SetAttributes(attribute.Int("range.start_len", len(rng.Start)), attribute.Int("range.end_len", len(rng.End)))

	keyCond := expression.Key(attrPK).Equal(expression.Value(shardKey)).
		And(expression.Key(attrSK).Between(expression.Value(rng.Start), expression.Value(rng.End)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return graphstoreerr.WrapStore(err, "building query expression")
	}

	result, breakerErr := r.store.breaker.Execute(func() (interface{}, error) {
		return r.store.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.store.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         r.lastKey,
		})
	})
	if breakerErr != nil {
		r.store.logger.Error("dynamo query failed", zap.Error(breakerErr))
		r.store.observe("error", 0)
		return graphstoreerr.WrapStore(breakerErr, "scanning table %q", r.store.table)
	}
	out := result.(*dynamodb.QueryOutput)

	r.buffer = r.buffer[:0]
	r.bufferIx = 0
	for _, item := range out.Items {
		entry, err := itemToRawEntry(item)
		if err != nil {
			r.store.logger.Warn("skipping malformed item", zap.Error(err))
			continue
		}
		r.buffer = append(r.buffer, entry)
	}
	r.store.observe("ok", len(r.buffer))
	r.lastKey = out.LastEvaluatedKey
	return nil
}

func itemToRawEntry(item map[string]types.AttributeValue) (RawEntry, error) {
	sk, ok := item[attrSK].(*types.AttributeValueMemberB)
	if !ok {
		return RawEntry{}, graphstoreerr.WrapCodec(nil, "item missing binary sort key")
	}
	cf, _ := item[attrCF].(*types.AttributeValueMemberB)
	value, _ := item[attrVal].(*types.AttributeValueMemberB)

	key, err := decodeSortKey(sk.Value)
	if err != nil {
		return RawEntry{}, err
	}
	if cf != nil {
		key.ColFamily = cf.Value
	}
	var v []byte
	if value != nil {
		v = value.Value
	}
	return RawEntry{Key: key, Value: v}, nil
}

// decodeSortKey reverses encodeSortKey's row/colFamily/colQualifier/
// colVisibility/timestamp packing. Anything after the 8-byte timestamp —
// the per-write tiebreak suffix tiebreakSortKey appends — is ignored: it
// exists only to keep DynamoDB items distinct and carries no meaning in
// the logical Key.
func decodeSortKey(sk []byte) (graph.Key, error) {
	fields, rest, err := splitNULFields(sk, 4)
	if err != nil {
		return graph.Key{}, graphstoreerr.WrapCodec(err, "decoding sort key")
	}
	if len(rest) < 8 {
		return graph.Key{}, graphstoreerr.WrapCodec(nil, "sort key missing 8-byte timestamp")
	}
	ts := int64(binary.BigEndian.Uint64(rest[:8]))
	return graph.Key{
		Row:           fields[0],
		ColFamily:     fields[1],
		ColQualifier:  fields[2],
		ColVisibility: fields[3],
		Timestamp:     ts,
	}, nil
}

func splitNULFields(b []byte, count int) ([][]byte, []byte, error) {
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		idx := indexByte(b, 0x00)
		if idx < 0 {
			return nil, nil, fmt.Errorf("expected %d NUL-delimited fields, ran out at field %d", count, i)
		}
		out = append(out, b[:idx])
		b = b[idx+1:]
	}
	return out, b, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func (r *dynamoRawSource) Close() error { return nil }

// WriteBatch submits mutations via BatchWriteItem, chunked to DynamoDB's
// 25-item limit per request.
func (s *DynamoStore) WriteBatch(ctx context.Context, mutations []Mutation) error {
	const maxBatch = 25
	for start := 0; start < len(mutations); start += maxBatch {
		end := start + maxBatch
		if end > len(mutations) {
			end = len(mutations)
		}
		if err := s.writeChunk(ctx, mutations[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) writeChunk(ctx context.Context, chunk []Mutation) error {
	ctx, span := s.tracer.Start(ctx, "store.WriteBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("mutation.count", len(chunk)))

	writeReqs := make([]types.WriteRequest, 0, len(chunk))
	for _, m := range chunk {
		item := map[string]types.AttributeValue{
			attrPK:  &types.AttributeValueMemberS{Value: shardKey},
			attrSK:  &types.AttributeValueMemberB{Value: tiebreakSortKey(encodeSortKey(m.Key))},
			attrCF:  &types.AttributeValueMemberB{Value: m.Key.ColFamily},
			attrVal: &types.AttributeValueMemberB{Value: m.Value},
		}
		writeReqs = append(writeReqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	result, breakerErr := s.breaker.Execute(func() (interface{}, error) {
		return s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: writeReqs},
		})
	})
	if breakerErr != nil {
		s.logger.Error("dynamo batch write failed", zap.Error(breakerErr))
		return graphstoreerr.WrapStore(breakerErr, "writing %d mutations to table %q", len(chunk), s.table)
	}
	if unprocessed := len(result.(*dynamodb.BatchWriteItemOutput).UnprocessedItems[s.table]); unprocessed > 0 {
		s.logger.Error("dynamo batch write left items unprocessed", zap.Int("unprocessed", unprocessed))
		return graphstoreerr.WrapStore(nil, "%d of %d mutations to table %q left unprocessed", unprocessed, len(chunk), s.table)
	}
	return nil
}
