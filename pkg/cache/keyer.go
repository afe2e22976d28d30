package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// DiagramKeyOpts are the generation options that change a diagram.
type DiagramKeyOpts struct {
	// Service is the focused service, or "" for the whole-system diagram.
	Service       string `json:"service,omitempty"`
	ShowConnectTo bool   `json:"show_connect_to,omitempty"`
	HomeBroker    string `json:"home_broker,omitempty"`
	// Version is the generator version; a new release invalidates old entries.
	Version string `json:"version,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// DiagramKey returns the key of a rendered diagram. inputHash covers the
	// graph document, stylesheet, props, skeleton and font table.
	DiagramKey(inputHash string, opts DiagramKeyOpts) string
}

// DefaultKeyer produces "diagram:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DiagramKey implements [Keyer].
func (DefaultKeyer) DiagramKey(inputHash string, opts DiagramKeyOpts) string {
	// DiagramKeyOpts only holds strings and bools.
	data, _ := json.Marshal(opts)
	return "diagram:" + HashAll([]byte(inputHash), data)
}

// ScopedKeyer prefixes the keys of another keyer so several projects can
// share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DiagramKey(inputHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(inputHash, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashAll hashes several inputs as one. Each part is length-prefixed, so
// moving bytes between neighbouring parts changes the result.
func HashAll(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(strconv.AppendInt(nil, int64(len(p)), 10))
		h.Write([]byte{':'})
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
