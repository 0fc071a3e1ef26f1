// Package server hosts the Fiber HTTP service for the edge node: the middleware
// chain (panic recovery, request IDs, the GET-only gate) and the catch-all route
// that hands image requests to an injected handler. Paths under /-/ are
// diagnostics and bypass tenant resolution; their routes live in
// server/routes. The package also owns the tuned http.Client shared by the
// HTTP origin backend. Keep exports narrow and accept explicit dependencies.
package server
