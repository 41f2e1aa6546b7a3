// Package cache provides a thread-safe generic LRU cache with optional
// per-entry time-to-live. It backs the in-process local membership cache.
package cache
