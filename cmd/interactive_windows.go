//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVT turns on virtual terminal processing so the console delivers
// arrow keys as ANSI sequences and renders the colour codes.
func enableVT() {
	for _, c := range []struct {
		f    *os.File
		mode uint32
	}{
		{os.Stdin, windows.ENABLE_VIRTUAL_TERMINAL_INPUT},
		{os.Stdout, windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING},
	} {
		h := windows.Handle(c.f.Fd())
		var mode uint32
		if windows.GetConsoleMode(h, &mode) == nil {
			_ = windows.SetConsoleMode(h, mode|c.mode)
		}
	}
}
