package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys.
type Keyer interface {
	// QueryKey returns the key of a query report over the graph whose
	// content hash is graphHash.
	QueryKey(graphHash string, opts QueryKeyOpts) string
}

// QueryKeyOpts holds everything besides the graph that changes a report.
type QueryKeyOpts struct {
	Query         string   `json:"query"` // Rendered walk.Query
	Starts        []string `json:"starts"`
	Target        string   `json:"target"` // Rendered predicate
	FindAll       bool     `json:"find_all"`
	CollectFailed bool     `json:"collect_failed"`
}

// DefaultKeyer produces "query:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// QueryKey hashes the graph hash together with the options.
func (DefaultKeyer) QueryKey(graphHash string, opts QueryKeyOpts) string {
	return hashKey("query", graphHash, opts)
}

var _ Keyer = DefaultKeyer{}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data. Graph documents are keyed by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
