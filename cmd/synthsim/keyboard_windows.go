package main

import (
	"context"
	"errors"
	"os"
)

type keyboard struct{}

func openKeyboard(*os.File) (*keyboard, error) {
	return nil, errors.New("keyboard: not supported on windows")
}

func (k *keyboard) run(context.Context, func(byte), func()) error { return nil }

func (k *keyboard) restore() {}
