// Command server runs the HTTP operation surface of spec §6 against a
// DynamoDB-backed store, assembled via internal/di the way the teacher's
// cmd/api wires its container and router before calling ListenAndServe.
//
// The schema and named views built below are a demonstration graph
// (people and the edges between them); a real deployment supplies its own
// schema the same way — schema JSON parsing is explicitly out of scope
// (spec §1), so schema construction here is plain Go, not a config file
// format this module owns.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/internal/config"
	"elementstore/internal/di"
	"elementstore/internal/httpapi"
	"elementstore/internal/observability"
)

func main() {
	configPath := flag.String("config", os.Getenv("ELEMENTSTORE_CONFIG"), "path to config YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Environment)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	tracerProvider, err := observability.InitTracing(cfg.Tracing)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}

	watcher, err := config.NewWatcher(*configPath, cfg, logger)
	if err != nil {
		logger.Fatal("starting config watcher", zap.Error(err))
	}
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schema, views := demoSchema()
	env, err := di.InitializeServer(ctx, cfg, schema, views, logger)
	if err != nil {
		logger.Fatal("assembling dependency graph", zap.Error(err))
	}

	router := httpapi.NewRouter(env, logger)
	srv := httpapi.Serve(cfg.Server.Address, router)

	go func() {
		logger.Info("starting server", zap.String("address", cfg.Server.Address), zap.String("environment", string(cfg.Environment)))
		if err := srv.ListenAndServe(); err != nil {
			logger.Info("server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", zap.Error(err))
	}
}

// demoSchema builds a small people/knows graph: Person entities with a
// name and a view-count property (max aggregator), Knows edges with a
// summing weight property — enough to exercise every spec §8 scenario
// (S1-S6) against a running server.
func demoSchema() (*graph.Schema, map[string]*graph.View) {
	person := &graph.GroupSchema{
		Name:       "Person",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "name", Type: graph.TypeString, Serialiser: graph.StringSerialiser{}},
			{Name: "views", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.MaxAggregator{}},
		},
	}
	knows := &graph.GroupSchema{
		Name:            "Knows",
		IsEdge:          true,
		SourceType:      "string",
		DestinationType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "weight", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.SumAggregator{}},
		},
		TimestampProperty: "",
	}
	schema, err := graph.NewSchema(person, knows)
	if err != nil {
		log.Fatalf("building demo schema: %v", err)
	}

	heavy := graph.NewView().WithEdgeGroup("Knows", &graph.GroupView{
		PostAggregationFilter: &graph.Filter{Terms: []graph.PropertyFilter{
			{Property: "weight", Predicate: func(v interface{}) (bool, error) {
				n, ok := v.(int64)
				return ok && n > 5, nil
			}},
		}},
	})

	views := map[string]*graph.View{
		"heavyKnows": heavy,
	}
	return schema, views
}
