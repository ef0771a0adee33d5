// Package resilience provides the retry and concurrency-isolation primitives
// used by the step executor and the tool registry.
//
//   - Retry: re-runs a failing operation up to a fixed attempt budget, either
//     immediately or with exponential backoff.
//   - Bulkhead: caps concurrent calls into one tool so a slow tool cannot
//     starve the others sharing a registry.
package resilience
