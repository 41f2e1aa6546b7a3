// Package binder fills request structs from an HTTP request. Each binder handles one
// source: JSON bodies, chi path parameters (`path` tags) or query strings (`query` tags).
// Binders that find nothing to do return ErrNotApplicable so callers can chain them.
package binder
