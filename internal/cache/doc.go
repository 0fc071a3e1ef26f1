// Package cache defines the disk-backed store that holds originals and
// derivatives under StoragePath/<tenant>/<key>. Every write goes to a temp file
// in the destination directory and is renamed into place only once complete, so
// a file visible under its final name is always whole; that rename is the only
// concurrency contract, there is no per-entry locking. Resolve checks the two
// tiers (derivative, then original) and reports which one can serve a request.
package cache
