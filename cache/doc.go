// Package cache provides the TTL result cache shared by tool invocations.
//
// Entries expire by time-to-live only; there is no explicit invalidation
// protocol. The store is dgraph-io/ristretto, bounded by entry count.
package cache
