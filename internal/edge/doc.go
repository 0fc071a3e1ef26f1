// Package edge ties the request pipeline together. For one inbound request it
// resolves the tenant and origin path, parses the transform chain, derives the
// cache keys, checks the local cache and then fills whatever is missing: the
// original through the single-flight origin pull, the derivative through the
// transform executor. The result is an Outcome value naming the file to serve
// and how it was obtained; the fiber handler translates outcomes and classified
// errors into HTTP responses.
package edge
