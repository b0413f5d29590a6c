// Package zvt owns the client side of the ZVT payment-terminal protocol
// (Revision 13.09).
//
// Ownership boundary:
// - typed command methods and payload composition
// - reply decoding: status information, intermediate status, print lines,
//   receipts, completion and abort
// - the per-command session: one in-flight command, timeout, cancellation
// - the event surface for terminal-initiated messages
//
// Byte transports live in package transport, package framing and
// acknowledgement in package link, wire primitives in packages apdu, bcd
// and tlv, and code-to-text catalogs in package catalog.
package zvt
