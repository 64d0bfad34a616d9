//go:build rp2040

// Package rp2audio streams audio from an audioout.Engine to an I2S DAC on
// the RP2040, using a PIO state machine for the I2S framing and two chained
// DMA channels to feed it.
package rp2audio

import (
	"machine"
	"runtime/volatile"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// I2S is a PIO state machine transmitting stereo I2S with 32-bit slots.
// Each word written to its TX FIFO is one slot.
type I2S struct {
	sm     pio.StateMachine
	offset uint8
}

// NewI2S loads the i2s32 program into sm's PIO block and starts it. data is
// the serial data pin; clockAndNext is the bit clock, and the pin after it
// carries the word select.
func NewI2S(sm pio.StateMachine, data, clockAndNext machine.Pin, sampleRate uint32) (*I2S, error) {
	sm.TryClaim() // SM should be claimed beforehand, we just guarantee it's claimed.
	Pio := sm.PIO()

	offset, err := Pio.AddProgram(i2s32Instructions, i2s32Origin)
	if err != nil {
		return nil, err
	}
	cfg := i2s32ProgramDefaultConfig(offset)

	pinCfg := machine.PinConfig{Mode: Pio.PinMode()}
	data.Configure(pinCfg)
	clockAndNext.Configure(pinCfg)
	(clockAndNext + 1).Configure(pinCfg)

	cfg.SetOutPins(data, 1)
	cfg.SetSidesetPins(clockAndNext)
	cfg.SetOutShift(false, true, 32)
	// Nothing is read back, so the RX FIFO doubles the DMA slack.
	cfg.SetFIFOJoin(pio.FifoJoinTx)

	sm.Init(offset, cfg)

	pinMask := uint32(1<<data) | uint32(0b11<<clockAndNext)
	sm.SetPindirsMasked(pinMask, pinMask)
	sm.SetPinsMasked(0, pinMask)

	sm.Exec(pio.EncodeJmp(offset+i2s32offset_entry_point, pio.JmpAlways))

	i2s := &I2S{
		sm:     sm,
		offset: offset,
	}
	if err := i2s.SetSampleFrequency(sampleRate); err != nil {
		return nil, err
	}
	i2s.Enable(true)
	return i2s, nil
}

// SetSampleFrequency sets the frame rate of the stream.
func (i2s *I2S) SetSampleFrequency(freq uint32) error {
	freq *= 128 // 64 bits per frame, 2 cycles per bit
	whole, frac, err := pio.ClkDivFromFrequency(freq, machine.CPUFrequency())
	if err != nil {
		return err
	}
	i2s.sm.SetClkDiv(whole, frac)
	return nil
}

// Enable starts or stops the bit clock.
func (i2s *I2S) Enable(enabled bool) {
	i2s.sm.SetEnabled(enabled)
}

// TxReg returns the TX FIFO register the DMA writes to.
func (i2s *I2S) TxReg() *volatile.Register32 {
	return i2s.sm.TxReg()
}

// txDREQ returns the data request signal pacing writes to the TX FIFO.
func (i2s *I2S) txDREQ() uint32 {
	return dmaPIO_TxDREQ(i2s.sm)
}
