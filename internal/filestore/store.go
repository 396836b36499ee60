// Package filestore implements the content-addressed blob cache (C1):
// agents pass binary payloads across the network by short FileId rather
// than inlining base64 everywhere. Backed by an in-memory map mirrored to
// disk: one file per ID under Dir, with a sidecar index.json mapping
// file_id -> media_type.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/idgen"
	"github.com/kandev/agentnet/internal/common/logger"
	"go.uber.org/zap"
)

// Record is one stored blob.
type Record struct {
	FileID    string `json:"file_id"`
	MediaType string `json:"media_type"`
}

// Store is the content-addressed file cache.
type Store struct {
	mu      sync.RWMutex
	dir     string
	bytes   map[string][]byte
	records map[string]Record
	logger  *logger.Logger
}

// New creates a Store rooted at dir. The directory is created if it does
// not exist and any existing index.json is loaded so a restarted process
// picks up files from a prior run.
func New(dir string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierrors.InternalError("creating file store directory", err)
	}
	s := &Store{
		dir:     dir,
		bytes:   make(map[string][]byte),
		records: make(map[string]Record),
		logger:  log.WithAgentID("filestore"),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apierrors.InternalError("reading file store index", err)
	}
	var index map[string]Record
	if err := json.Unmarshal(data, &index); err != nil {
		return apierrors.InternalError("parsing file store index", err)
	}
	for id, rec := range index {
		payload, err := os.ReadFile(filepath.Join(s.dir, id))
		if err != nil {
			continue // skip entries whose blob is missing on disk
		}
		s.records[id] = rec
		s.bytes[id] = payload
	}
	return nil
}

// writeIndexLocked persists the index. Callers must hold s.mu.
func (s *Store) writeIndexLocked() error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return apierrors.InternalError("marshaling file store index", err)
	}
	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apierrors.InternalError("writing file store index", err)
	}
	return os.Rename(tmp, s.indexPath())
}

// Put stores payload under a fresh, unguessable FileId and returns it.
func (s *Store) Put(payload []byte, mediaType string) (string, error) {
	id := idgen.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, id), payload, 0o644); err != nil {
		return "", apierrors.InternalError("writing file blob", err)
	}
	s.bytes[id] = payload
	s.records[id] = Record{FileID: id, MediaType: mediaType}
	if err := s.writeIndexLocked(); err != nil {
		return "", err
	}
	s.logger.Debug("stored file", zap.String("file_id", id), zap.String("media_type", mediaType))
	return id, nil
}

// Get returns the bytes and media type for id.
func (s *Store) Get(id string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, "", apierrors.NotFound("file", id)
	}
	return s.bytes[id], rec.MediaType, nil
}

// ClearAll empties the store, in memory and on disk. Called once at
// registry startup.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.records {
		_ = os.Remove(filepath.Join(s.dir, id))
	}
	s.bytes = make(map[string][]byte)
	s.records = make(map[string]Record)
	return s.writeIndexLocked()
}
