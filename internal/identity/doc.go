// Package identity turns an inbound request (Host header, path, raw query) into
// the tenant-scoped identity every later stage keys on. Resolution is pure: no
// filesystem or network access happens here, so the same triple always yields
// the same Identity. DeriveKeys projects an identity plus the canonical form of
// its transform chain onto the original/derivative cache keys.
package identity
