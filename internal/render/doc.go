// Package render produces derivatives: it decodes a cached original, runs the
// transform chain over it in declared order and encodes the result into the
// derivative's cache slot with the same temp-file + rename discipline the
// origin pull uses. An empty chain renders nothing and serves the original.
// Concurrent requests for one derivative share a single render, and a
// semaphore bounds how many renders hold decoded images at once.
package render
