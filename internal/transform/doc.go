// Package transform defines the query-string transform chain: the closed set of
// operations (resize, crop, pad, effect, quality), the parser that turns a raw
// query into an ordered Spec, and the canonical serialization every cache key is
// derived from.
//
// Operations keep the order in which the caller declared them; the only
// collapsing rule is that width, height and fit merge into one resize placed at
// the first of those parameters. Each operation registers its metadata (query
// parameters, idempotence) in the package registry from init(), and the parser
// only accepts parameters a registered operation declares.
//
// Pixel work is delegated to github.com/disintegration/imaging.
package transform
