package common

// Environment selects between a venue's production and sandbox URL sets.
type Environment string

const (
	// EnvProduction selects the venue's live URLs.
	EnvProduction Environment = "production"
	// EnvTestnet selects the venue's sandbox URLs. Venues without a sandbox fail
	// with ErrNotSupported when asked for testnet URLs.
	EnvTestnet Environment = "testnet"
)

// EndpointClass partitions a venue's API surface so that environments can be
// selected per class, e.g. candles against production while orders go to testnet.
type EndpointClass string

const (
	EndpointCandles EndpointClass = "candles"
	EndpointTicker  EndpointClass = "ticker"
	EndpointTrades  EndpointClass = "trades"
	EndpointOrders  EndpointClass = "orders"
	EndpointAccount EndpointClass = "account"
)

// NetworkConfig controls which environment's URLs an adapter produces. It is a
// value passed to the adapter at resolve time and governs every URL it returns.
type NetworkConfig struct {
	// Default applies to every endpoint class without an override.
	Default Environment

	// Overrides maps endpoint classes to environments, taking precedence over Default.
	Overrides map[EndpointClass]Environment

	// forceProduction bypasses everything; set by ForTesting so tests can patch a
	// single set of URLs deterministically.
	forceProduction bool
}

// Production returns a config selecting production URLs for every endpoint class.
func Production() NetworkConfig {
	return NetworkConfig{Default: EnvProduction}
}

// Testnet returns a config selecting testnet URLs for every endpoint class.
func Testnet() NetworkConfig {
	return NetworkConfig{Default: EnvTestnet}
}

// Hybrid returns a config with a production default and per-class overrides.
func Hybrid(overrides map[EndpointClass]Environment) NetworkConfig {
	copied := make(map[EndpointClass]Environment, len(overrides))
	for class, env := range overrides {
		copied[class] = env
	}
	return NetworkConfig{Default: EnvProduction, Overrides: copied}
}

// ForTesting returns a config that forces production on every query regardless of
// settings, so URL-patching in tests behaves predictably.
func ForTesting() NetworkConfig {
	return NetworkConfig{Default: EnvProduction, forceProduction: true}
}

// EnvironmentFor resolves the environment for an endpoint class: the bypass flag
// first, then per-class overrides, then the default.
func (c NetworkConfig) EnvironmentFor(class EndpointClass) Environment {
	if c.forceProduction {
		return EnvProduction
	}
	if env, ok := c.Overrides[class]; ok {
		return env
	}
	if c.Default == "" {
		return EnvProduction
	}
	return c.Default
}
