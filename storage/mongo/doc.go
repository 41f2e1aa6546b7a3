// Package mongo is the authoritative store on MongoDB. Records and transactions are
// keyed by user ID and session ID respectively; transaction transitions use a filtered
// UpdateOne so only one writer moves a session out of a given status.
package mongo
