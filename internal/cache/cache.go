package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores parsed source artifacts as opaque bytes
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a key from the parts identifying an artifact,
// typically its kind, path, size and modification time
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "ignoromenot:v1:" + hex.EncodeToString(hash[:])
}

// Noop never stores anything. It stands in when caching is disabled.
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)               { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error                     { return nil }
func (Noop) Clear() error                            { return nil }
