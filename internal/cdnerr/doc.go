// Package cdnerr classifies every failure the edge can produce into the five
// outcome kinds the HTTP layer understands: bad request, not found, origin
// failure, transform failure and filesystem failure. Errors are built on
// github.com/jmgilman/go/errors so they carry a stable code, a retry
// classification and structured context, and they serialize to the JSON body
// returned to clients. Callers classify with KindOf/Status instead of matching
// on strings.
package cdnerr
