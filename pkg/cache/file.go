package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const recordExt = ".json"

// FileCache keeps one record file per key below dir. Records live in
// <dir>/<h[:2]>/<h>.json where h is the [Hash] of the key.
type FileCache struct {
	dir string
}

// NewFileCache opens the cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// record is the on-disk form of one entry. Key is stored so that a file
// moved or copied to another name is never served for the wrong key.
// Expires is zero for entries without a TTL.
type record struct {
	Key     string    `json:"key"`
	Written time.Time `json:"written"`
	Expires time.Time `json:"expires,omitzero"`
	Report  []byte    `json:"report"`
}

func (r *record) expired(now time.Time) bool {
	return !r.Expires.IsZero() && now.After(r.Expires)
}

// Get returns the stored report for key. Unreadable, foreign and expired
// records are removed and reported as a miss.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Key != key || rec.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return rec.Report, true, nil
}

// Set writes the report for key. A ttl of zero or less never expires.
// The record is written to a temporary file first and renamed into place,
// so a concurrent Get sees either the old record or the new one.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	rec := record{Key: key, Written: now, Report: data}
	if ttl > 0 {
		rec.Expires = now.Add(ttl)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Delete removes the record for key. A missing record is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every record and reports how many it removed. Empty fan-out
// directories are removed too; dir itself stays.
func (c *FileCache) Clear() (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), recordExt) {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, err
	}

	subs, err := os.ReadDir(c.dir)
	if err != nil {
		return removed, err
	}
	for _, sub := range subs {
		if sub.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, sub.Name()))
		}
	}
	return removed, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h+recordExt)
}

var _ Cache = (*FileCache)(nil)
