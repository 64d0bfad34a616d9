//go:build !windows

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// keyboard reads single key presses from a terminal in raw mode.
type keyboard struct {
	fd       int
	oldState *term.State
}

func openKeyboard(f *os.File) (*keyboard, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("keyboard: %s is not a terminal", f.Name())
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("keyboard: raw mode: %w", err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		term.Restore(fd, oldState)
		return nil, fmt.Errorf("keyboard: nonblocking read: %w", err)
	}
	return &keyboard{fd: fd, oldState: oldState}, nil
}

// run passes key presses to press until ctx ends or quit is pressed.
func (k *keyboard) run(ctx context.Context, press func(byte), quit func()) error {
	buf := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := syscall.Read(k.fd, buf)
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("keyboard: %w", err)
		}
		switch buf[0] {
		case 'q', 3, 4: // q, ^C, ^D
			quit()
			return nil
		}
		press(buf[0])
	}
}

// restore returns the terminal to the state it had before openKeyboard.
func (k *keyboard) restore() {
	syscall.SetNonblock(k.fd, false)
	term.Restore(k.fd, k.oldState)
}
