// Package stream writes a finished cache entry to the client. The body is handed
// to fasthttp as an open file so large images go out through the kernel's
// sendfile path instead of being buffered in memory. Content-Length is always
// the exact size of the file that was opened, never a value carried over from
// an earlier stat.
package stream
