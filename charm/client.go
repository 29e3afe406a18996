// ABOUTME: Charm KV client implementing the store.Documents port
// ABOUTME: Keys are "collection/id"; writes sync to the charm server when auto-sync is on

package charm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/prospecta/store"
)

// kvBackend is the subset of charm/kv.KV the client relies on.
type kvBackend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client wraps a KV backend with config and sync helpers.
type Client struct {
	kv     kvBackend
	config *Config
	closer func() error
	mu     sync.RWMutex
}

var _ store.Documents = (*Client)(nil)

// Open connects to charm cloud KV using cfg (defaults when nil).
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{kv: db, config: cfg}

	// Sync on startup to pull remote changes
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// OpenLocal opens a BadgerDB-backed client rooted at dir, with no remote sync.
func OpenLocal(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	b, err := openBadger(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Client{
		kv:     b,
		config: (&Config{Host: "localhost"}).withDefaults(),
		closer: b.Close,
	}, nil
}

// Close releases the backend. charm/kv has no Close; its badger instance lives until exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	return err
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Reset wipes all data from the KV store.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

func docKey(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

func (c *Client) Get(_ context.Context, collection, id string) ([]byte, error) {
	if err := store.ValidateKey(collection, id); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.get(collection, id)
}

func (c *Client) get(collection, id string) ([]byte, error) {
	data, err := c.kv.Get(docKey(collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return data, nil
}

func (c *Client) Put(_ context.Context, collection, id string, doc []byte) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(collection, id, doc)
}

// set writes while holding the lock so the follow-up sync cannot race another write.
func (c *Client) set(collection, id string, doc []byte) error {
	if err := c.kv.Set(docKey(collection, id), doc); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) Merge(_ context.Context, collection, id string, doc []byte) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.get(collection, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	merged, err := store.MergePatch(current, doc)
	if err != nil {
		return err
	}
	return c.set(collection, id, merged)
}

func (c *Client) Delete(_ context.Context, collection, id string) error {
	if err := store.ValidateKey(collection, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.get(collection, id); err != nil {
		return err
	}
	if err := c.kv.Delete(docKey(collection, id)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) List(_ context.Context, collection string) (map[string][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	prefix := []byte(collection + "/")
	out := make(map[string][]byte)
	for _, k := range keys {
		if !bytes.HasPrefix(k, prefix) {
			continue
		}
		data, err := c.kv.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		out[string(k[len(prefix):])] = data
	}
	return out, nil
}

func (c *Client) Collections(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	seen := make(map[string]bool)
	for _, k := range keys {
		name, _, ok := strings.Cut(string(k), "/")
		if ok && name != "" {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// KeyCount returns the number of stored keys.
func (c *Client) KeyCount() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys, err := c.kv.Keys()
	return len(keys), err
}
