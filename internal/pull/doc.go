// Package pull fetches missing originals from the origin store into the local
// cache. For any origin key there is at most one fetch in flight process-wide:
// the first caller leads, later callers wait on the same flight and observe the
// same outcome. The fetch runs detached from the request that started it, so a
// client that goes away only stops waiting; the download still completes and
// populates the cache for everyone else.
package pull
