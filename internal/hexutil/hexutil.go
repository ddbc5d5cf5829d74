// Package hexutil renders the two hexadecimal shapes the trace output uses:
// zero-padded file offsets and bare two-digit byte values.
package hexutil

import "fmt"

// Offset formats a byte offset as 0x-prefixed, zero-padded hex. The result
// is exactly six characters wide for offsets below 64 KiB, matching the
// offset column of the trace layout.
func Offset(n int) string {
	return fmt.Sprintf("0x%04x", n)
}

// Byte formats a single byte as bare two-digit lowercase hex.
func Byte(b byte) string {
	return fmt.Sprintf("%02x", b)
}
