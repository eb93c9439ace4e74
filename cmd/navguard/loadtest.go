package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/authstore"
	"github.com/MrEthical07/navGuard/jwt"
	"github.com/MrEthical07/navGuard/routes"
	"github.com/MrEthical07/navGuard/session"
)

type loadtestOptions struct {
	clients     int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd(loadTable func() (*routes.Table, error)) *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive concurrent navigations through Redis-backed auth stores",
		Long: `Seed clients with no login, a live login, or an expired login, then run a
cold phase (one navigation per client, loading credentials from Redis) and a
warm phase (random navigations over ready stores).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.clients <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return errors.New("clients, concurrency, and ops must be > 0")
			}
			table, err := loadTable()
			if err != nil {
				return err
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), table, opts)
		},
	}
	cmd.Flags().IntVar(&opts.clients, "clients", 10000, "number of clients to seed")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 100000, "navigations in the warm phase")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; empty starts an embedded redis")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "nglt", "credential key prefix")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, table *routes.Table, opts loadtestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start embedded redis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	sessions := session.NewStore(client, opts.prefix, time.Hour)

	engine, err := navguard.New().
		WithRoutes(table).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	secret := []byte("navguard-loadtest-secret-0123456789")
	tokens, err := jwt.NewManager(jwt.Config{AccessTTL: time.Hour, SigningMethod: jwt.MethodHS256, PrivateKey: secret})
	if err != nil {
		return err
	}
	stale, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    secret,
		Now:           func() time.Time { return time.Now().Add(-time.Hour) },
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "seeding %d clients...\n", opts.clients)
	startSeed := time.Now()
	clientIDs := make([]string, opts.clients)
	for i := range clientIDs {
		id := fmt.Sprintf("client-%d", i)
		clientIDs[i] = id

		var issuer *jwt.Manager
		switch i % 3 {
		case 1:
			issuer = tokens
		case 2:
			issuer = stale
		default:
			continue
		}
		token, err := issuer.CreateAccess("u"+id, id)
		if err != nil {
			return err
		}
		expiresAt, err := issuer.TokenExpiry(token)
		if err != nil {
			return err
		}
		if err := sessions.For(id).SaveToken(ctx, token, expiresAt); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	registry := authstore.NewRegistry(func(clientID string) (*authstore.Store, error) {
		return authstore.New(sessions.For(clientID), tokens, authstore.WithClientID(clientID))
	})

	paths := make([]string, 0, table.Len())
	for _, rec := range table.Records() {
		if !rec.IsWildcard() {
			paths = append(paths, rec.Path)
		}
	}
	paths = append(paths, "/no-such-page")

	navigate := func(i int, r *rand.Rand) error {
		store, err := registry.Get(clientIDs[i%len(clientIDs)])
		if err != nil {
			return err
		}
		_, err = engine.Navigate(ctx, store, paths[r.Intn(len(paths))], "")
		return err
	}

	cold := runPhase(len(clientIDs), opts.concurrency, 7919, func(i int, r *rand.Rand) error {
		return navigate(i, r)
	})
	warm := runPhase(opts.ops, opts.concurrency, 6151, func(_ int, r *rand.Rand) error {
		return navigate(r.Intn(len(clientIDs)), r)
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "cold", cold)
	printStats(out, "warm", warm)

	snap := engine.MetricsSnapshot()
	for _, id := range []navguard.MetricID{
		navguard.MetricNavigationAllowed,
		navguard.MetricNavigationRedirectLogin,
		navguard.MetricNavigationRedirectLanding,
		navguard.MetricCheckAuthRun,
		navguard.MetricCheckAuthFailure,
		navguard.MetricSessionExpired,
	} {
		fmt.Fprintf(out, "%s=%d\n", id, snap.Counters[id])
	}
	return nil
}

// runPhase runs ops calls of fn over concurrency workers and collects latencies.
func runPhase(ops, concurrency int, seed int64, fn func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
