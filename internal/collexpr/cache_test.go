package collexpr

import (
	"context"
	"sync"
	"testing"
	"time"

	"brackets/internal/diag"
)

func TestCacheSharedAcrossGoroutines(t *testing.T) {
	f := newFixture(t)
	cache := NewCache()
	target := f.list(f.b.Int)
	shape := Shape{Count: 2}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]Strategy, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := NewEngine(f.tab, Options{Cache: cache, Site: f.opts.Site})
			results[i], errs[i] = e.Resolve(context.Background(), target, shape)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i].Kind != StrategyInitializer {
			t.Fatalf("worker %d: %s", i, results[i].Kind)
		}
	}
	st := cache.Stats()
	if st.Strategies != 1 {
		t.Fatalf("expected one strategy entry, got %d", st.Strategies)
	}
	if st.Hits+st.Misses != workers {
		t.Fatalf("lookups %d, want %d", st.Hits+st.Misses, workers)
	}
}

func TestCacheReplaysFindingsPerUseSite(t *testing.T) {
	f := newBuilderFixture(t)
	f.create(nil)
	f.coll.Builder.MethodName = ""
	target := f.tab.Instantiate(f.coll, f.b.Int)

	for i := 0; i < 2; i++ {
		bag := diag.NewBag(8)
		coll := f.fixture.coll("[1]")
		if _, err := f.binder(bag).Bind(context.Background(), target, coll); err != nil {
			t.Fatal(err)
		}
		if !hasCode(bag, diag.CollInvalidBuilderMethodName) {
			t.Fatalf("use %d: cached findings not replayed: %s", i, diagnosticsSummary(bag))
		}
		for _, d := range bag.Items() {
			if d.Primary != coll.Sp {
				t.Fatalf("use %d: finding at %v, want %v", i, d.Primary, coll.Sp)
			}
		}
	}
	if st := f.eng().Cache().Stats(); st.Hits == 0 {
		t.Fatalf("second bind should hit the cache: %+v", st)
	}
}

func TestCacheKeyIncludesShape(t *testing.T) {
	f := newFixture(t)
	e := f.eng()
	ctx := context.Background()
	target := f.in.Array(f.b.Int, 1)
	for _, sh := range []Shape{{Count: 0}, {Count: 1}, {Count: 1, HasSpread: true}, {Count: 1}} {
		if _, err := e.Resolve(ctx, target, sh); err != nil {
			t.Fatal(err)
		}
	}
	st := e.Cache().Stats()
	if st.Strategies != 3 || st.Hits != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestCacheWaiterOutlivesCancelledLeader(t *testing.T) {
	cache := NewCache()
	key := strategyKey{shape: Shape{Count: 1}}
	leaderCtx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := cache.strategy(leaderCtx, key, func() (Strategy, error) {
			close(started)
			<-release
			return Strategy{}, leaderCtx.Err()
		})
		leaderErr <- err
	}()
	<-started

	type result struct {
		s   Strategy
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		s, _, err := cache.strategy(context.Background(), key, func() (Strategy, error) {
			return Strategy{Kind: StrategyArray}, nil
		})
		waiter <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	if err := <-leaderErr; err == nil {
		t.Fatal("cancelled leader should fail")
	}
	got := <-waiter
	if got.err != nil {
		t.Fatalf("live waiter got the leader's error: %v", got.err)
	}
	if got.s.Kind != StrategyArray {
		t.Fatalf("waiter strategy %s", got.s.Kind)
	}
	if st := cache.Stats(); st.Strategies != 1 {
		t.Fatalf("stats %+v", st)
	}
}
