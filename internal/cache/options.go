package cache

import "time"

// Options configures a Cache.
type Options struct {
	// StaleTime is how long fetched data stays fresh when a query does not
	// override it. Zero means stale immediately.
	StaleTime time.Duration
	// MaxEntries bounds the number of keys held; 0 is unbounded.
	MaxEntries int
	// QueryRetries is the retry budget for retryable read failures.
	QueryRetries int
	// MutationRetries is the default retry budget for mutations.
	MutationRetries int
	// RetryDelay is the constant wait between attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns the policy the client ships with.
func DefaultOptions() Options {
	return Options{
		StaleTime:       30 * time.Second,
		MaxEntries:      500,
		QueryRetries:    2,
		MutationRetries: 1,
		RetryDelay:      300 * time.Millisecond,
	}
}

type queryConfig struct {
	staleTime time.Duration
	enabled   bool
	swr       bool
	retries   int
}

// QueryOption customizes one Query call.
type QueryOption func(*queryConfig)

// StaleTime overrides how long the fetched data stays fresh.
func StaleTime(d time.Duration) QueryOption {
	return func(c *queryConfig) { c.staleTime = d }
}

// Enabled(false) turns the query into a cache read that never fetches.
func Enabled(enabled bool) QueryOption {
	return func(c *queryConfig) { c.enabled = enabled }
}

// StaleWhileRevalidate controls whether stale data is served while a
// background refetch runs. When off, a stale read waits for the refetch.
func StaleWhileRevalidate(on bool) QueryOption {
	return func(c *queryConfig) { c.swr = on }
}

// QueryRetries overrides the retry budget of one query.
func QueryRetries(n int) QueryOption {
	return func(c *queryConfig) { c.retries = n }
}

type mutateConfig struct {
	invalidates []Key
	derive      []func(result any) []Key
	retries     int
}

// MutateOption customizes one Mutate call.
type MutateOption func(*mutateConfig)

// Invalidates declares the key prefixes marked stale once the mutation succeeds.
func Invalidates(prefixes ...Key) MutateOption {
	return func(c *mutateConfig) { c.invalidates = append(c.invalidates, prefixes...) }
}

// InvalidatesFrom derives prefixes from the mutation's result, for targets
// only known once the server has answered (the list a card was created in).
func InvalidatesFrom(fn func(result any) []Key) MutateOption {
	return func(c *mutateConfig) { c.derive = append(c.derive, fn) }
}

// MutationRetries overrides the retry budget of one mutation. Creates should pass 0.
func MutationRetries(n int) MutateOption {
	return func(c *mutateConfig) { c.retries = n }
}
