package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kandev/agentnet/internal/common/apierrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Put([]byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, mt, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("data = %q", data)
	}
	if mt != "text/plain" {
		t.Errorf("media type = %q", mt)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Get("does-not-exist")
	if !apierrors.Is(err, apierrors.CodeNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestPutPersistsToDiskWithIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := s.Put([]byte("payload"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, id)); err != nil {
		t.Errorf("expected blob file on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); err != nil {
		t.Errorf("expected index.json on disk: %v", err)
	}
}

func TestReloadRecoversFromDiskIndex(t *testing.T) {
	dir := t.TempDir()
	s1, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := s1.Put([]byte("persisted"), "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	s2, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	data, mt, err := s2.Get(id)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if string(data) != "persisted" || mt != "text/plain" {
		t.Errorf("reloaded record mismatch: %q %q", data, mt)
	}
}

func TestClearAllEmptiesStoreAndDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := s.Put([]byte("x"), "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if _, _, err := s.Get(id); !apierrors.Is(err, apierrors.CodeNotFound) {
		t.Errorf("expected NotFound after ClearAll, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id)); !os.IsNotExist(err) {
		t.Errorf("expected blob removed from disk")
	}
}

func TestPutGeneratesUniqueIDsEachCall(t *testing.T) {
	s := newTestStore(t)
	id1, _ := s.Put([]byte("a"), "text/plain")
	id2, _ := s.Put([]byte("b"), "text/plain")
	if id1 == id2 {
		t.Error("expected distinct FileIds per Put call")
	}
}
