package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/aislescout/aislescout/internal/sink"
	"github.com/aislescout/aislescout/internal/types"
)

type captureSink struct {
	mu      sync.Mutex
	records []types.Record
	closed  bool
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Write(_ context.Context, records []types.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return nil
}

func (c *captureSink) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureSink) find(code string, store types.RetailerID) (types.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ProductCode == code && r.Store == store {
			return r, true
		}
	}
	return types.Record{}, false
}

func TestEngineRun(t *testing.T) {
	f := newFakeFetcher()
	f.results["tesco"] = okResult(goodPage)

	capture := &captureSink{}
	d := NewDispatcher(testEngineConfig(), f, testLogger)
	eng := New(testEngineConfig(), d, []sink.Sink{capture}, nil, testLogger)

	input := []types.ProductRow{
		{
			ProductCode: "P1",
			StoreLinks: map[types.RetailerID]string{
				"tesco": "https://www.tesco.com/groceries/product/1",
				"asda":  "https://groceries.asda.com/product/1",
			},
		},
		{
			ProductCode: "P2",
			StoreLinks: map[types.RetailerID]string{
				"lidl": "https://www.lidl.co.uk/p/2",
			},
		},
	}

	stats := eng.Run(context.Background(), input)

	if stats.Rows != 2 {
		t.Errorf("rows = %d, want 2", stats.Rows)
	}
	if stats.Annotated != 1 || stats.Failed != 1 {
		t.Errorf("annotated/failed = %d/%d, want 1/1", stats.Annotated, stats.Failed)
	}
	if stats.Records != 3 {
		t.Errorf("records = %d, want one per store link", stats.Records)
	}

	t.Run("successful link carries the aisle", func(t *testing.T) {
		r, ok := capture.find("P1", "tesco")
		if !ok {
			t.Fatal("no record for P1/tesco")
		}
		if r.Aisle != "Home > Fresh Food > Dairy > Milk" {
			t.Errorf("aisle = %q", r.Aisle)
		}
	})

	t.Run("unattempted link gets the failed sentinel", func(t *testing.T) {
		for _, key := range []struct {
			code  string
			store types.RetailerID
		}{{"P1", "asda"}, {"P2", "lidl"}} {
			r, ok := capture.find(key.code, key.store)
			if !ok {
				t.Fatalf("no record for %s/%s", key.code, key.store)
			}
			if r.Aisle != types.FailedAisle {
				t.Errorf("%s/%s aisle = %q, want %q", key.code, key.store, r.Aisle, types.FailedAisle)
			}
		}
	})
}

func TestEngineRunCancelled(t *testing.T) {
	f := newFakeFetcher()
	capture := &captureSink{}
	d := NewDispatcher(testEngineConfig(), f, testLogger)
	eng := New(testEngineConfig(), d, []sink.Sink{capture}, nil, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := eng.Run(ctx, []types.ProductRow{
		{ProductCode: "P1", StoreLinks: map[types.RetailerID]string{"lidl": "https://www.lidl.co.uk/p/1"}},
		{ProductCode: "P2", StoreLinks: map[types.RetailerID]string{"lidl": "https://www.lidl.co.uk/p/2"}},
	})

	if stats.Rows != 0 {
		t.Errorf("rows = %d, want 0 when cancelled before start", stats.Rows)
	}
}

func TestEngineConcurrentRows(t *testing.T) {
	f := newFakeFetcher()
	f.results["tesco"] = okResult(goodPage)

	cfg := testEngineConfig()
	cfg.Concurrency = 4

	capture := &captureSink{}
	d := NewDispatcher(cfg, f, testLogger)
	eng := New(cfg, d, []sink.Sink{capture}, nil, testLogger)

	var input []types.ProductRow
	for i := 0; i < 20; i++ {
		input = append(input, types.ProductRow{
			ProductCode: "P" + string(rune('A'+i)),
			StoreLinks:  map[types.RetailerID]string{"tesco": "https://www.tesco.com/groceries/product/1"},
		})
	}

	stats := eng.Run(context.Background(), input)
	if stats.Rows != 20 || stats.Annotated != 20 {
		t.Errorf("rows/annotated = %d/%d, want 20/20", stats.Rows, stats.Annotated)
	}
	if stats.Records != 20 {
		t.Errorf("records = %d, want 20", stats.Records)
	}
}
