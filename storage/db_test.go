package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func runDatabaseSuite(t *testing.T, db Database) {
	t.Helper()

	key := []byte("accounts/abc")
	if _, err := db.Get(key); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("missing key error = %v, want ErrKeyNotFound", err)
	}
	if ok, err := db.Has(key); err != nil || ok {
		t.Fatalf("Has on missing key = %v/%v", ok, err)
	}

	if err := db.Put(key, []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v1" {
		t.Fatalf("value = %q, want v1", value)
	}

	if err := db.Put(key, []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = db.Get(key)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(value) != "v2" {
		t.Fatalf("value after overwrite = %q, want v2", value)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("deleted key error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	runDatabaseSuite(t, db)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()
	runDatabaseSuite(t, db)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'

	stored, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(stored) != "original" {
		t.Fatalf("stored value aliased the caller's slice: %q", stored)
	}
	stored[0] = 'Y'

	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("returned value aliased the stored slice: %q", again)
	}
}
