package transform

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// Factory constructs a fresh Transform instance (a user module's
// package-level constructor).
type Factory func() Transform

type registryKey struct {
	absPath    string
	configHash string
}

// registry is the process-wide module registry keyed by (absolute config
// path, config hash) rather than bare module name, so two runs of
// differently-configured transforms whose files share a name never
// collide — each run gets its own cache entry instead of reusing a stale
// module loaded for a different configuration (§4.E "module-cache
// invalidation").
type registry struct {
	mu    sync.RWMutex
	items map[registryKey]Factory
}

var globalRegistry = &registry{items: make(map[registryKey]Factory)}

// Register associates a user module's factory with the config file it was
// declared from, keyed by that file's absolute path plus a hash of the
// config content that selected it.
func Register(configPath, configHash string, factory Factory) error {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return errors.Wrapf(err, errors.KindConfig, "resolve absolute path for %s", configPath)
	}
	key := registryKey{absPath: abs, configHash: configHash}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.items[key] = factory
	return nil
}

// Lookup returns the factory registered for (configPath, configHash), or
// ok=false if none was registered — the module must be loaded exactly once
// per run (§4.E), so a miss here means the caller needs to load and
// Register it first.
func Lookup(configPath, configHash string) (Factory, bool) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, false
	}
	key := registryKey{absPath: abs, configHash: configHash}

	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	f, ok := globalRegistry.items[key]
	return f, ok
}

// HashConfig returns a hex digest of a config file's raw bytes, suitable as
// Register/Lookup's configHash: two runs over identical config content
// share a cache entry, and an edited config invalidates it automatically.
func HashConfig(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// Invalidate removes every registered factory for configPath regardless of
// hash, forcing the next Lookup to miss and the caller to reload. Used
// between runs that reuse the same config file path with different content.
func Invalidate(configPath string) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	for key := range globalRegistry.items {
		if key.absPath == abs {
			delete(globalRegistry.items, key)
		}
	}
}
