//go:build rp2040

package rp2audio

import (
	"device/rp"
	"runtime/interrupt"
	"unsafe"
)

// DMATransport feeds an I2S state machine from two buffer halves with a pair
// of DMA channels chained to each other. It implements audioout.Transport.
//
// Only one transport can be started at a time since it owns DMA_IRQ_0.
type DMATransport struct {
	i2s        *I2S
	ch         [2]dmaChannel
	halves     [2][]uint32
	onComplete func()
}

// active is the started transport served by DMA_IRQ_0.
var active *DMATransport

// NewDMATransport claims two DMA channels for streaming into i2s.
func NewDMATransport(i2s *I2S) (*DMATransport, error) {
	a, ok := _DMA.ClaimChannel()
	if !ok {
		return nil, errDMAUnavail
	}
	b, ok := _DMA.ClaimChannel()
	if !ok {
		a.Unclaim()
		return nil, errDMAUnavail
	}
	return &DMATransport{i2s: i2s, ch: [2]dmaChannel{a, b}}, nil
}

// Start points channel i at halves[i], chains the channels to each other,
// enables their completion interrupt and starts channel 0.
func (t *DMATransport) Start(halves [2][]uint32, onComplete func()) error {
	if active != nil {
		return errBusy
	}
	if len(halves[0]) == 0 || len(halves[1]) == 0 {
		return errNoHalves
	}
	t.halves = halves
	t.onComplete = onComplete

	dst := uint32(uintptr(unsafe.Pointer(t.i2s.TxReg())))
	dreq := t.i2s.txDREQ()
	var irqMask uint32
	for i, ch := range t.ch {
		hw := ch.HW()
		hw.READ_ADDR.Set(bufAddr(halves[i]))
		hw.WRITE_ADDR.Set(dst)
		hw.TRANS_COUNT.Set(uint32(len(halves[i])))
		cc := dmaStreamConfig(t.ch[1-i].idx, dreq)
		hw.AL1_CTRL.Set(cc.CTRL)
		irqMask |= ch.mask()
	}

	active = t
	rp.DMA.INTS0.Set(irqMask)
	rp.DMA.INTE0.SetBits(irqMask)
	intr := interrupt.New(rp.IRQ_DMA_IRQ_0, handleDMAIRQ)
	intr.SetPriority(0x00)
	intr.Enable()

	rp.DMA.MULTI_CHAN_TRIGGER.Set(t.ch[0].mask())
	return nil
}

// Completed returns the channel whose transfer finished and acknowledges its
// interrupt. If both finished, the second one is reported by the next
// interrupt, which stays pending.
func (t *DMATransport) Completed() (int, bool) {
	ints := rp.DMA.INTS0.Get()
	for i, ch := range t.ch {
		if ints&ch.mask() != 0 {
			rp.DMA.INTS0.Set(ch.mask())
			return i, true
		}
	}
	return 0, false
}

// Rearm resets the read address of channel desc to the start of its half.
// The transfer count reloads by itself, and writing READ_ADDR does not
// trigger the channel; the chain from the other channel does.
func (t *DMATransport) Rearm(desc int) {
	t.ch[desc].HW().READ_ADDR.Set(bufAddr(t.halves[desc]))
}

// Stop halts both channels, releases them and the interrupt.
func (t *DMATransport) Stop() error {
	var irqMask uint32
	for _, ch := range t.ch {
		irqMask |= ch.mask()
	}
	rp.DMA.INTE0.ClearBits(irqMask)
	// Break the chain first so an abort does not start the other channel.
	for _, ch := range t.ch {
		ch.HW().AL1_CTRL.ClearBits(rp.DMA_CH0_CTRL_TRIG_EN_Msk)
	}
	var err error
	for _, ch := range t.ch {
		if ch.busy() {
			if abortErr := ch.abort(); abortErr != nil {
				err = abortErr
			}
		}
		ch.Unclaim()
	}
	rp.DMA.INTS0.Set(irqMask)
	if active == t {
		active = nil
	}
	return err
}

func handleDMAIRQ(interrupt.Interrupt) {
	if t := active; t != nil && t.onComplete != nil {
		t.onComplete()
	}
}

func bufAddr(buf []uint32) uint32 {
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
