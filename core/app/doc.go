// Package app wires a cache [cache.Registry] with logging, metrics and a
// periodic collector that sweeps stale entries from every store.
//
// # Basic Usage
//
//	a, err := app.Run(app.Config{
//	    Metrics:         prometheus.NewCacheMetrics(prom.DefaultRegisterer),
//	    CollectInterval: 30 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pages, err := app.GetStore[uuid.UUID, *Page](a, "pages")
//
//	// Graceful shutdown
//	a.Shutdown(ctx)
//
// # Configuration Sources
//
// Store Options come from Config.Resolver. Combine sources with
// [cache.Chain], for instance a NATS KV bucket in front of a YAML file:
//
//	app.Config{
//	    Resolver: cache.Chain(
//	        kv.NewOptionsResolver(natsStore, kv.ResolverOptions{Prefix: "typecache."}),
//	        yamlResolver,
//	    ),
//	}
package app
