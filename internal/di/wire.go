//go:build wireinject

// Package di assembles elementstore's dependency graph with
// github.com/google/wire, grounded on the teacher's internal/di/wire.go:
// one provider function per dependency, composed into named wire.NewSet
// groups, injected by a single InitializeServer build function. wire_gen.go
// holds the generator's output (hand-assembled here since this module
// never invokes `go generate`/`wire` as part of this exercise).
package di

import (
	"context"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsDynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/graph/keypkg"
	_ "elementstore/graph/keypkg/byteentity"
	_ "elementstore/graph/keypkg/classic"
	"elementstore/internal/config"
	"elementstore/internal/graphstoreerr"
	"elementstore/internal/observability"
	"elementstore/operation"
	"elementstore/retriever"
	"elementstore/store"
	"elementstore/writer"
)

// ProvideRegisterer supplies the Prometheus registry elementstore's
// instruments attach to. A dedicated registry (not prometheus.DefaultRegisterer)
// keeps repeated InitializeServer calls in tests from colliding on
// already-registered collector names.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.NewRegistry()
}

// ProvideAWSDynamoClient loads default AWS credentials/region and builds a
// DynamoDB client, optionally pointed at cfg.Store.Endpoint for a local
// DynamoDB / LocalStack instance.
func ProvideAWSDynamoClient(ctx context.Context, cfg *config.Config) (*awsDynamodb.Client, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Store.Region))
	if err != nil {
		return nil, graphstoreerr.WrapConfig(err, "loading AWS config")
	}
	opts := []func(*awsDynamodb.Options){}
	if cfg.Store.Endpoint != "" {
		opts = append(opts, func(o *awsDynamodb.Options) { o.BaseEndpoint = &cfg.Store.Endpoint })
	}
	return awsDynamodb.NewFromConfig(awsCfg, opts...), nil
}

// ProvideKeyPackage resolves cfg.Store.KeyPackage via the explicit registry
// (spec Design Note 9.2) against schema, rather than any reflective lookup.
func ProvideKeyPackage(cfg *config.Config, schema *graph.Schema) (keypkg.KeyPackage, error) {
	ctor, ok := keypkg.Lookup(cfg.Store.KeyPackage)
	if !ok {
		return nil, graphstoreerr.Config("unknown key package %q (known: %v)", cfg.Store.KeyPackage, keypkg.Identifiers())
	}
	return ctor(schema)
}

func ProvideDynamoStore(client *awsDynamodb.Client, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *store.DynamoStore {
	return store.NewDynamoStore(client, cfg.Store.Table, cfg.Store.CircuitBreak, logger, metrics)
}

func ProvideRetriever(schema *graph.Schema, kp keypkg.KeyPackage, dynamo *store.DynamoStore) *retriever.Retriever {
	return retriever.New(schema, kp, dynamo)
}

func ProvideWriter(kp keypkg.KeyPackage, dynamo *store.DynamoStore, logger *zap.Logger, metrics *observability.Metrics) *writer.Writer {
	return writer.New(kp, dynamo, logger, metrics)
}

func ProvideEnvironment(schema *graph.Schema, kp keypkg.KeyPackage, r *retriever.Retriever, w *writer.Writer, views map[string]*graph.View) *operation.Environment {
	return &operation.Environment{Schema: schema, KeyPkg: kp, Retriever: r, Writer: w, Views: views}
}

var (
	ConfigSet = wire.NewSet(
		ProvideRegisterer,
		observability.NewMetrics,
	)

	StoreSet = wire.NewSet(
		ProvideAWSDynamoClient,
		ProvideDynamoStore,
	)

	DomainSet = wire.NewSet(
		ProvideKeyPackage,
		ProvideRetriever,
		ProvideWriter,
		ProvideEnvironment,
	)
)

// InitializeServer wires the whole dependency graph for cmd/server.
func InitializeServer(ctx context.Context, cfg *config.Config, schema *graph.Schema, views map[string]*graph.View, logger *zap.Logger) (*operation.Environment, error) {
	wire.Build(
		ConfigSet,
		StoreSet,
		DomainSet,
	)
	return nil, nil
}
