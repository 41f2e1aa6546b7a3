// Package memory holds in-process stores: an LRU-backed local membership cache and a
// map-backed transaction store for single-process development setups.
package memory
