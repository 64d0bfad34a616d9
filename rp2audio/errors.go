package rp2audio

import (
	"errors"
	"math"
	"runtime"
)

const timeoutRetries = math.MaxUint16 * 8

var (
	errBusy       = errors.New("rp2audio:busy")
	errDMAUnavail = errors.New("rp2audio:DMA channel unavailable")
	errNoHalves   = errors.New("rp2audio:empty buffer half")
	errAbort      = errors.New("rp2audio:DMA abort timeout")
)

//go:generate pioasm -o go i2s32.pio i2s32_pio.go

func gosched() {
	runtime.Gosched()
}
