package localstore

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

type fixture struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	in := fixture{Name: "alpha", Count: 3}
	if err := store.Set("k1", in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out fixture
	if err := store.Get("k1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Errorf("Get returned %+v, want %+v", out, in)
	}
}

func TestSetOverwrites(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set("k", fixture{Name: "first"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("k", fixture{Name: "second"}); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	var out fixture
	if err := store.Get("k", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "second" {
		t.Errorf("value after overwrite = %q, want %q", out.Name, "second")
	}
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t)

	var out fixture
	if err := store.Get("nope", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on absent key returned %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set("k", fixture{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	var out fixture
	if err := store.Get("k", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove returned %v, want ErrNotFound", err)
	}

	// Removing an absent key is fine.
	if err := store.Remove("k"); err != nil {
		t.Errorf("Remove of absent key: %v", err)
	}
}

func TestKeysPrefix(t *testing.T) {
	store := openTestStore(t)

	for _, k := range []string{"live:a", "live:b", "snapshots:a"} {
		if err := store.Set(k, fixture{}); err != nil {
			t.Fatalf("Set %q: %v", k, err)
		}
	}

	keys, err := store.Keys("live:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"live:a", "live:b"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys(\"live:\") = %v, want %v", keys, want)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set("k", fixture{Name: "durable", Count: 7}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var out fixture
	if err := reopened.Get("k", &out); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if out.Name != "durable" || out.Count != 7 {
		t.Errorf("value after reopen = %+v", out)
	}
}
