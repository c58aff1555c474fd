package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// interactiveSelect lets the user move through lines with the arrow keys and
// calls onSelect with the index of the line chosen with Enter. Esc or Ctrl-C
// leaves the list.
func interactiveSelect(lines []string, onSelect func(i int)) {
	if len(lines) == 0 {
		return
	}

	enableVT()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	reader := bufio.NewReader(os.Stdin)
	selected, top := 0, 0

	window := func() int {
		if _, h, err := term.GetSize(fd); err == nil && h > 2 {
			return h - 2
		}
		return 20
	}

	redraw := func() {
		rows := window()
		if selected < top {
			top = selected
		} else if selected >= top+rows {
			top = selected - rows + 1
		}
		// raw mode needs explicit carriage returns
		fmt.Print("\033[H\033[2J")
		for i := top; i < len(lines) && i < top+rows; i++ {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Print(prefix + lines[i] + "\r\n")
		}
		fmt.Printf("(%d/%d  ↑/↓ to navigate, Enter for details, Esc to quit)", selected+1, len(lines))
	}

	move := func(delta int) {
		next := min(max(selected+delta, 0), len(lines)-1)
		if next == selected {
			return
		}
		selected = next
		redraw()
	}

	open := func() bool {
		_ = term.Restore(fd, oldState)
		fmt.Println()
		onSelect(selected)

		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		oldState, err = term.MakeRaw(fd)
		if err != nil {
			return false
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		// Windows console arrows arrive as 0 or 224 followed by a scan code
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72:
				move(-1)
			case 80:
				move(1)
			case 73:
				move(-window())
			case 81:
				move(window())
			case 13:
				if !open() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27:
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return
			}
			if b2, _ := reader.ReadByte(); b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				move(-1)
			case 'B':
				move(1)
			}
		case 'k':
			move(-1)
		case 'j':
			move(1)
		case '\r', '\n':
			if !open() {
				return
			}
		case 3, 'q':
			fmt.Print("\r\n")
			return
		}
	}
}
