// Package origin reads original images from the upstream object store. Every
// backend satisfies the same narrow contract, Get(key) returning a byte stream,
// and reports absence with ErrNotFound so callers can tell "the origin says no"
// apart from transport or storage failures. Backends: plain HTTP against a
// bucket/host template, AWS S3, MinIO (any S3-compatible endpoint) and a local
// directory for development.
package origin
