//go:build !windows

package main

// enableVT is a no-op where terminals speak ANSI natively.
func enableVT() {}
