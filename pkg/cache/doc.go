// Package cache provides a thread-safe, generic response cache with TTL
// expiry, bounded capacity, built-in statistics, and optional Prometheus
// metrics integration.
//
// # Overview
//
// The cache stores values under deterministic string keys with a fixed
// expiry deadline per entry. It backs the SDK's simulation, cross-layer,
// and AI analysis clients, which fingerprint their requests into keys via
// Fingerprint and reuse responses until they expire.
//
// # Quick Start
//
//	c, err := cache.New[*types.SimulationResult](ctx, cache.Config{
//		Enabled:    true,
//		MaxEntries: 1000,
//		TTL:        5 * time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	key := cache.Fingerprint(tx.From, tx.To, tx.Value, tx.Data)
//	if result, ok := c.Get(key); ok {
//		return result, nil // fresh cached response
//	}
//
// # Expiry Semantics
//
// Each entry's deadline is set once at insert time (now + TTL) and never
// moves. Reads increment the entry's hit count and refresh its
// last-accessed time for observability, but do not extend its lifetime.
// An expired entry reports a miss even while still resident; it is
// collected lazily on access, by the capacity sweep, or by the optional
// background cleanup goroutine.
//
// # Capacity Semantics
//
// MaxEntries bounds the store softly. When an insert pushes the entry
// count past the bound, a sweep removes every expired entry and nothing
// else. Live entries are never evicted for space, so the store may exceed
// its bound until entries age out. Callers that need a hard bound should
// size TTLs accordingly.
//
// # Observability
//
// Statistics are always collected using atomic counters and exposed via
// Stats(). Prometheus export is opt-in:
//
//	c, err := cache.New[V](ctx, cfg,
//		cache.WithMetrics[V](registry, "simulation"),
//		cache.WithEvictionCallback[V](func(key string, v V) { ... }),
//	)
//
// # Thread Safety
//
// All operations are safe for concurrent use. Reads take a shared lock;
// writes are serialized. Eviction callbacks run outside locks to prevent
// deadlocks. For concurrent writers of the same key, last write wins.
package cache
