package universe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	raw := []string{"Symbol", " aapl ", "BRK.B", "msft", "AAPL", "", "brk.b"}
	got := Normalize(raw)

	want := []string{"AAPL", "BRK-B", "MSFT"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLoadCSVTakesFirstColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	content := "Symbol,Name\nAAPL,Apple Inc.\nBRK.B,Berkshire Hathaway\n\nmsft,Microsoft\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tickers, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := []string{"AAPL", "BRK-B", "MSFT"}
	if len(tickers) != len(want) {
		t.Fatalf("got %v, want %v", tickers, want)
	}
	for i := range want {
		if tickers[i] != want[i] {
			t.Fatalf("got %v, want %v", tickers, want)
		}
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

type recordingStore struct {
	replaced []string
}

func (r *recordingStore) ReplaceUniverse(ctx context.Context, tickers []string) error {
	r.replaced = tickers
	return nil
}

func (r *recordingStore) ListUniverse(ctx context.Context) ([]string, error) {
	return r.replaced, nil
}

func TestRefreshReplacesStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	if err := os.WriteFile(path, []byte("ticker\nNVDA\nAMD\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &recordingStore{}
	count, err := Refresh(context.Background(), store, path)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if count != 2 || len(store.replaced) != 2 {
		t.Fatalf("count = %d, stored = %v", count, store.replaced)
	}
}

func TestRefreshRejectsEmptyUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	if err := os.WriteFile(path, []byte("ticker\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Refresh(context.Background(), &recordingStore{}, path); err == nil {
		t.Fatal("an all-header file must be rejected")
	}
}
