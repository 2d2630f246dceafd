// Package resilience provides the fault-tolerance primitives used by peer
// discovery.
//
//   - Retry: bounded attempts with fixed or exponential sleeps between them
//   - Bulkhead: limits how many operations run concurrently
//
// A fixed-interval fetch with three attempts and one second between them:
//
//	body, err := resilience.Retry(ctx, resilience.FixedRetryConfig(3, time.Second),
//	    func(attempt int) ([]byte, error) { return fetch(ctx) })
package resilience
