// Package registry holds the process-wide mapping from exchange names to adapter
// factories. Adapter packages register themselves at load time, database/sql-driver
// style; after init the registry is read-only.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Factory constructs a fresh adapter bound to the given network config.
type Factory func(common.NetworkConfig) (common.Adapter, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes an adapter factory available under the uppercase exchange name.
// It is intended to be called from adapter package init functions; registering nil
// or the same name twice panics, since both indicate a programming error.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if factory == nil {
		panic("registry: Register factory is nil")
	}
	name = strings.ToUpper(name)
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("registry: Register called twice for exchange %v", name))
	}
	factories[name] = factory
}

// Resolve constructs a fresh adapter for the named exchange, bound to cfg.
//
// * Fails with ErrUnknownExchange if no adapter registered under that name.
func Resolve(name string, cfg common.NetworkConfig) (common.Adapter, error) {
	mu.RLock()
	factory, ok := factories[strings.ToUpper(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", common.ErrUnknownExchange, name, strings.Join(List(), ", "))
	}
	return factory(cfg)
}

// List returns the registered exchange names, sorted. Provided for CLIs.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
