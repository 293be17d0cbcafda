package server_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/server"
)

func TestDiff_OversizedBodyRejectedAs413(t *testing.T) {
	h := newTestHandler(server.WithMaxBodyBytes(32))

	body := `{"a":"` + strings.Repeat("x", 64) + `","b":"y"}`

	rec := postJSON(h, "/v1/diff", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}

	decodeError(t, rec)
}

func TestDiff_TokenCeilingRejectedAs413(t *testing.T) {
	h := server.NewHandler(compare.New(compare.Options{MaxTokens: 3}))

	rec := postJSON(h, "/v1/diff", `{"a":"a b c d","b":"a"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}

	if msg := decodeError(t, rec); !strings.Contains(msg, "maximum is 3") {
		t.Errorf("error = %q", msg)
	}
}

func TestDiff_TokensAtCeilingAccepted(t *testing.T) {
	h := server.NewHandler(compare.New(compare.Options{MaxTokens: 3}))

	rec := postJSON(h, "/v1/diff", `{"a":"a b c","b":"c b a"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestBatch_TokenCeilingRejectedAs413(t *testing.T) {
	h := server.NewHandler(compare.New(compare.Options{MaxTokens: 2}))

	rec := postJSON(h, "/v1/diff/batch", `{"pairs":[{"a":"a","b":"a"},{"name":"big","a":"a b c","b":""}]}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}

	if msg := decodeError(t, rec); !strings.Contains(msg, "big") {
		t.Errorf("error %q does not name the pair", msg)
	}
}

// blockingComparer blocks until release is closed, counting how many calls
// run at the same time.
type blockingComparer struct {
	release <-chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (b *blockingComparer) Compare(a, c string) (compare.Comparison, error) {
	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-b.release
	b.active.Add(-1)
	return compare.New(compare.Options{}).Compare(a, c)
}

func (b *blockingComparer) CompareBatch(ctx context.Context, pairs []compare.Pair) ([]compare.Comparison, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return compare.New(compare.Options{}).CompareBatch(ctx, pairs)
}

func TestDiff_RequestTimeoutAs504(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := server.NewHandler(&blockingComparer{release: release},
		server.WithRequestTimeout(20*time.Millisecond),
	)

	rec := postJSON(h, "/v1/diff", `{"a":"a","b":"b"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("want 504, got %d", rec.Code)
	}
}

func TestBatch_RequestTimeoutAs504(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := server.NewHandler(&blockingComparer{release: release},
		server.WithRequestTimeout(20*time.Millisecond),
	)

	rec := postJSON(h, "/v1/diff/batch", `{"pairs":[{"a":"a","b":"b"}]}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("want 504, got %d", rec.Code)
	}
}

func TestDiff_WorkerLimitCapsConcurrency(t *testing.T) {
	release := make(chan struct{})
	cmp := &blockingComparer{release: release}

	h := server.NewHandler(cmp,
		server.WithWorkers(2),
		server.WithRequestTimeout(5*time.Second),
	)

	const requests = 6

	var wg sync.WaitGroup
	codes := make([]int, requests)
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = postJSON(h, "/v1/diff", `{"a":"a","b":"a"}`).Code
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for cmp.active.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	close(release)
	wg.Wait()

	if peak := cmp.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d; want <= 2", peak)
	}

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: want 200, got %d", i, code)
		}
	}
}
