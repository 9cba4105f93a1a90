//go:build !debug

package debug

// Debug controls verbose diagnostics; enabled with the "debug" build tag.
const Debug = false
