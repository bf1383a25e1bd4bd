// Package idgen wraps identifier generation so that it can be stubbed in
// tests: UUID strings for sessions and messages, and monotonic integer
// sequences for the ids a simulated arena hands out.
package idgen
