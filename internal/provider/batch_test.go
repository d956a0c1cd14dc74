package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeQuoteSource struct {
	chunks    [][]string
	failEvery int
}

func (s *fakeQuoteSource) FetchQuotes(ctx context.Context, symbols []string) (map[string]OptionQuote, error) {
	s.chunks = append(s.chunks, append([]string(nil), symbols...))
	if s.failEvery > 0 && len(s.chunks)%s.failEvery == 0 {
		return nil, errors.New("provider unavailable")
	}
	iv := 0.3
	out := make(map[string]OptionQuote, len(symbols))
	for _, sym := range symbols {
		out[sym] = OptionQuote{IV: &iv}
	}
	return out, nil
}

func symbolList(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("SYM%03d", i))
	}
	return out
}

func TestFetchBatchChunksAndCaps(t *testing.T) {
	src := &fakeQuoteSource{}
	batcher := NewQuoteBatcher(src, 20, 80, zerolog.Nop())

	batch, err := batcher.FetchBatch(context.Background(), symbolList(100))
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(src.chunks) != 4 {
		t.Fatalf("made %d chunk calls, want 4", len(src.chunks))
	}
	for i, chunk := range src.chunks {
		if len(chunk) != 20 {
			t.Fatalf("chunk %d has %d symbols, want 20", i, len(chunk))
		}
	}
	if len(batch.Symbols) != 80 {
		t.Fatalf("got %d symbols, cap is 80", len(batch.Symbols))
	}
	if batch.Symbols[0] != "SYM000" || batch.Symbols[79] != "SYM079" {
		t.Fatalf("symbol order not preserved: %s .. %s", batch.Symbols[0], batch.Symbols[79])
	}
}

func TestFetchBatchDedupesFirstSeen(t *testing.T) {
	src := &fakeQuoteSource{}
	batcher := NewQuoteBatcher(src, 20, 80, zerolog.Nop())

	batch, err := batcher.FetchBatch(context.Background(), []string{"B", "A", "B", "", "C", "A"})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	want := []string{"B", "A", "C"}
	if len(batch.Symbols) != len(want) {
		t.Fatalf("got %v, want %v", batch.Symbols, want)
	}
	for i := range want {
		if batch.Symbols[i] != want[i] {
			t.Fatalf("got %v, want %v", batch.Symbols, want)
		}
	}
}

func TestFetchBatchSkipsFailedChunks(t *testing.T) {
	// Every second chunk call fails; its symbols must be absent, the rest kept.
	src := &fakeQuoteSource{failEvery: 2}
	batcher := NewQuoteBatcher(src, 10, 80, zerolog.Nop())

	batch, err := batcher.FetchBatch(context.Background(), symbolList(40))
	if err != nil {
		t.Fatalf("partial failures must not fail the batch: %v", err)
	}

	if len(batch.Symbols) != 20 {
		t.Fatalf("got %d symbols, want the 20 from surviving chunks", len(batch.Symbols))
	}
	if _, ok := batch.Quotes["SYM010"]; ok {
		t.Fatal("symbols of a failed chunk must be absent")
	}
	if _, ok := batch.Quotes["SYM000"]; !ok {
		t.Fatal("symbols of a successful chunk must be present")
	}
}

func TestFetchBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batcher := NewQuoteBatcher(&fakeQuoteSource{}, 10, 80, zerolog.Nop())
	if _, err := batcher.FetchBatch(ctx, symbolList(5)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
