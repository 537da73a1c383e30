package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docserve"
)

// Envelope is the durable-tier on-disk format: one JSON file per
// fingerprint key.
type Envelope struct {
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
	TTLSeconds float64         `json:"ttlSeconds"`
}

// Expired reports whether the envelope's age exceeds its TTL at now.
func (e *Envelope) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > time.Duration(e.TTLSeconds*float64(time.Second))
}

// Durable is the persistent cache tier behind the memory tier.
type Durable interface {
	// Read returns the envelope stored under key, or ok=false on a miss.
	// Expiry is the caller's concern; Read returns whatever is on disk.
	Read(key string) (env Envelope, ok bool)

	// Write persists the envelope under key.
	Write(key string, env Envelope) error

	// Remove deletes the entry for key. Removing an absent key is a no-op.
	Remove(key string) error

	// RemoveAll deletes every entry.
	RemoveAll() error

	// Keys returns the stored keys in sanitized (filename) form.
	Keys() ([]string, error)

	// Sweep removes entries whose age exceeds their own TTL at now and
	// returns the number removed.
	Sweep(now time.Time) (removed int, err error)
}

// Ensure FileCache implements Durable at compile time.
var _ Durable = (*FileCache)(nil)

// FileCache stores one JSON file per fingerprint key under a root
// directory created with owner-only access.
type FileCache struct {
	root string
}

// NewFileCache creates the root directory if needed and returns a FileCache.
func NewFileCache(root string) (*FileCache, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, docserve.Errorf(docserve.EINTERNAL, "cache directory: %v", err)
	}
	return &FileCache{root: root}, nil
}

const (
	maxFilenameLen = 100
	filenameExt    = ".json"
)

// Filename maps a cache key to a safe filename. It rejects keys that would
// start with "." or contain ".." before any sanitization happens: this is a
// path-traversal guard, not cosmetic hygiene, and such keys must never be
// silently remapped. The remaining characters are restricted to an allowed
// set, repeats of the replacement character are collapsed, and the result
// is capped in length.
func Filename(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.Contains(key, "..") {
		return "", docserve.Errorf(docserve.ESECURITY, "cache key not allowed")
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}

	name := b.String()
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return "", docserve.Errorf(docserve.ESECURITY, "cache key not allowed")
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name + filenameExt, nil
}

func (c *FileCache) path(key string) (string, error) {
	name, err := Filename(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.root, name), nil
}

func (c *FileCache) Read(key string) (Envelope, bool) {
	path, err := c.path(key)
	if err != nil {
		return Envelope{}, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, false
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, false
	}
	return env, true
}

func (c *FileCache) Write(key string, env Envelope) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

func (c *FileCache) Remove(key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *FileCache) RemoveAll() error {
	names, err := c.Keys()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.root, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (c *FileCache) Keys() ([]string, error) {
	dirents, err := os.ReadDir(c.root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), filenameExt) {
			continue
		}
		names = append(names, d.Name())
	}
	return names, nil
}

// Sweep scans the durable tier and removes entries whose age exceeds their
// own TTL. Unreadable or corrupt files are removed as well; they can never
// be served.
func (c *FileCache) Sweep(now time.Time) (int, error) {
	names, err := c.Keys()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		path := filepath.Join(c.root, name)

		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var env Envelope
		expired := json.Unmarshal(raw, &env) != nil || env.Expired(now)
		if !expired {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}
