package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewandler/typecache-go/adapters/prometheus"
	"github.com/codewandler/typecache-go/adapters/yamlconf"
	"github.com/codewandler/typecache-go/core/app"
	"github.com/codewandler/typecache-go/core/cache"
)

// === Config ===

var (
	logLevel     = slog.LevelInfo
	N            = getEnvInt("N", 1_000_000)
	workers      = getEnvInt("W", runtime.GOMAXPROCS(0))
	keyspace     = getEnvInt("K", 10_000)
	batchSize    = getEnvInt("B", 100_000)
	capacity     = getEnvInt("CAP", 5_000)
	ttl          = getEnvDuration("TTL", 30*time.Second)
	latency      = getEnvDuration("LATENCY", 0)
	dedupe       = getEnvBool("SINGLEFLIGHT", false)
	configFile   = getEnv("CONFIG", "")
	metricsAddr  = getEnv("METRICS_ADDR", "")
	collectEvery = getEnvDuration("COLLECT", 5*time.Second)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if v == "1" || strings.ToLower(v) == "true" {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type Profile struct {
	ID    int
	Name  string
	Score float64
}

func loadProfile(id int) (*Profile, error) {
	if latency > 0 {
		time.Sleep(latency)
	}
	return &Profile{ID: id, Name: fmt.Sprintf("user-%d", id), Score: rand.Float64()}, nil
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === wire ===

	var resolver cache.OptionsResolver = cache.Static(cache.Options{ExpiryTime: ttl, Capacity: capacity}, nil)
	if configFile != "" {
		fileResolver, err := yamlconf.LoadFile(configFile)
		checkErr(err)
		resolver = cache.Chain(fileResolver, resolver)
	}

	reg := prom.NewRegistry()
	storeOpts := []cache.StoreOption{}
	if dedupe {
		storeOpts = append(storeOpts, cache.WithSingleflight())
	}

	a, err := app.Run(app.Config{
		Context:         ctx,
		Log:             log,
		ID:              "cacheload",
		Resolver:        resolver,
		Metrics:         prometheus.NewCacheMetrics(reg),
		StoreOptions:    storeOpts,
		CollectInterval: collectEvery,
	})
	checkErr(err)
	reg.MustRegister(prometheus.NewRegistryCollector(a.Registry()))

	if metricsAddr != "" {
		go func() {
			log.Info("serving metrics", slog.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})); err != nil {
				log.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	profiles, err := app.GetStore[int, *Profile](a, "profiles")
	checkErr(err)

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...",
		slog.Int("ops", N),
		slog.Int("workers", workers),
		slog.Int("keyspace", keyspace),
		slog.String("store", profiles.Report().String()),
	)

	var (
		hits, misses atomic.Int64
		done         atomic.Int64
		wg           sync.WaitGroup
		startAt      = time.Now()
		perWorker    = N / max(workers, 1)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := rand.IntN(keyspace)
				if _, ok := profiles.Get(id); ok {
					hits.Add(1)
				} else {
					misses.Add(1)
					_, err := profiles.GetOrPopulate(id, loadProfile)
					checkErr(err)
				}
				if n := done.Add(1); n%int64(batchSize) == 0 {
					mu := getMemUsage()
					fmt.Printf(" | %8d ops | %6d entries | %5.1f%% hits | (%d / %d) MiB mem (sys) |\n",
						n, profiles.Count(), 100*float64(hits.Load())/float64(n), mu.Alloc/1024/1024, mu.Sys/1024/1024)
				}
			}
		}()
	}
	wg.Wait()

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	total := hits.Load() + misses.Load()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("          ops: %d\n", total)
	fmt.Printf("         hits: %d\n", hits.Load())
	fmt.Printf("       misses: %d\n", misses.Load())
	fmt.Printf("   avg. ops/s: %d\n", int(float64(total)/took.Seconds()))
	for _, r := range a.Registry().ReportAll() {
		fmt.Printf("        store: %s\n", r)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	checkErr(a.Shutdown(shutdownCtx))
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
