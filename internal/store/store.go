// Package store defines the persistence port (spec.md §3 Ownership, §5
// Shared resources) and the per-task advisory lock discipline: "one lock
// per task_id, held for the full handler". The key-value store itself is
// an external collaborator (spec.md §1); an in-memory reference
// implementation is provided for tests.
package store

import (
	"encoding/json"
	"sync"
	"time"

	logging "github.com/ipfs/go-log"
	"github.com/pkg/errors"
)

var log = logging.Logger("store")

// Persistence key prefixes (spec.md §6).
const (
	PrefixDelegatorKeyGenStoreItem = "delegator_task_key_gen_store_item"
	PrefixDelegatorSignStoreItem   = "delegator_task_sign_store_item"
	PrefixExecutorStoreItem        = "executor_task_store_item"
	PrefixInitialPinnerStoreItem   = "initial_pinner_task_store_item"
	PrefixPinnerStoreItem          = "pinner_task_store_item"
	PrefixKeyGenRSAKey             = "key_gen_rsa_key"
	PrefixSignRSAKey               = "sign_rsa_key"
	PrefixDeploymentID             = "depl-id"
	PrefixDataCID                  = "data-cid"
	PrefixPinnerAESKey             = "pinner-aes-key"
)

// RSAStashTTL is the lifetime of a stashed RSA private key (spec.md §3).
// After it expires, any arriving slice/response for that task is
// unrecoverable and must be reported as failure (spec.md §5).
const RSAStashTTL = 6000 * time.Second

// Key builds a "<prefix>_<taskID>" persistence key, the convention every
// store item and RSA stash uses (spec.md §6).
func Key(prefix, taskID string) string {
	return prefix + "_" + taskID
}

// ErrNotFound is returned by Get when the key has no value (or has
// expired).
var ErrNotFound = errors.New("store: key not found")

// Storage is the key-value store port (spec.md §1 "The key-value store
// used for per-task persistence and short-lived RSA private-key
// stashes").
type Storage interface {
	// Get decodes the value at key into out. Returns ErrNotFound if
	// absent or expired.
	Get(key string, out interface{}) error
	// Set stores value at key with a TTL; ttl <= 0 means forever.
	Set(key string, value interface{}, ttl time.Duration) error
	// Delete removes key, if present.
	Delete(key string) error
}

type entry struct {
	data      []byte
	expiresAt time.Time // zero means never
}

// MemoryStorage is an in-memory Storage reference implementation.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]entry
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]entry)}
}

func (m *MemoryStorage) Get(key string, out interface{}) error {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return ErrNotFound
	}
	if err := json.Unmarshal(e.data, out); err != nil {
		return errors.Wrapf(err, "store: decode %s", key)
	}
	return nil
}

func (m *MemoryStorage) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "store: encode %s", key)
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// TaskLocks is the per-task advisory lock registry: "Concurrent local
// handlers for the same task_id must serialize via a per-task advisory
// lock held for the read-modify-write window" (spec.md §3 Ownership).
type TaskLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTaskLocks constructs an empty registry.
func NewTaskLocks() *TaskLocks {
	return &TaskLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the advisory lock for taskID, creating it on first use.
// The caller must call the returned unlock func exactly once.
func (t *TaskLocks) Lock(taskID string) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[taskID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[taskID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// StashRSAKey persists a short-lived RSA private key under the given
// prefix, TTL RSAStashTTL (spec.md §3 "RSA private key stashes").
func StashRSAKey(s Storage, prefix, taskID string, priv []byte) error {
	log.Debugf("stashing rsa key %s for task %s (ttl %s)", prefix, taskID, RSAStashTTL)
	return s.Set(Key(prefix, taskID), priv, RSAStashTTL)
}

// FetchRSAKey retrieves a stashed RSA private key. A miss (expired or
// never stashed) is reported as ErrNotFound, which the caller must treat
// as a fatal crypto failure for the task (spec.md §5).
func FetchRSAKey(s Storage, prefix, taskID string) ([]byte, error) {
	var priv []byte
	if err := s.Get(Key(prefix, taskID), &priv); err != nil {
		return nil, err
	}
	return priv, nil
}
