// Package mongo connects the mongo-driver/v2 client with retry and exposes a readiness
// check. It backs the authoritative store when STORAGE_DRIVER=mongo.
package mongo
