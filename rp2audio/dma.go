//go:build rp2040

package rp2audio

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

var _DMA = &dmaArbiter{}

// dmaArbiter tracks the channels claimed through this package only. Channels
// taken by machine or by other DMA users in the same firmware are invisible
// to it, so the transport assumes it owns every channel it claims.
type dmaArbiter struct {
	claimedChannels uint16
}

// ClaimChannel returns a DMA channel that can be used for DMA transfers.
func (arb *dmaArbiter) ClaimChannel() (channel dmaChannel, ok bool) {
	for i := uint8(0); i < 12; i++ {
		ch := arb.Channel(i)
		if ch.TryClaim() {
			return ch, true
		}
	}
	return dmaChannel{}, false
}

func (arb *dmaArbiter) Channel(channel uint8) dmaChannel {
	if channel > 11 {
		panic("invalid DMA channel")
	}
	var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))
	return dmaChannel{
		hw:  &dmaChannels[channel],
		arb: arb,
		idx: channel,
	}
}

type dmaChannel struct {
	hw  *dmaChannelHW
	arb *dmaArbiter
	idx uint8
}

// TryClaim claims the DMA channel and returns if it succeeded in claiming the channel.
func (ch dmaChannel) TryClaim() bool {
	if ch.IsClaimed() {
		return false
	}
	ch.arb.claimedChannels |= 1 << ch.idx
	return true
}

// Unclaim releases the DMA channel so it can be used by other peripherals.
func (ch dmaChannel) Unclaim() {
	ch.arb.claimedChannels &^= 1 << ch.idx
}

func (ch dmaChannel) IsClaimed() bool {
	return ch.arb.claimedChannels&(1<<ch.idx) != 0
}

// HW returns the hardware registers for this DMA channel.
func (ch dmaChannel) HW() *dmaChannelHW { return ch.hw }

func (ch dmaChannel) mask() uint32 { return 1 << ch.idx }

// Single DMA channel. See rp.DMA_Type.
//
// Writing a *_TRIG register starts the channel; the AL1 alias of CTRL does
// not, which lets a chained channel be configured while idle.
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	AL1_CTRL    volatile.Register32
	_           [11]volatile.Register32 // remaining aliases
}

// dmaPIO_TxDREQ returns the Tx DREQ signal for a PIO state machine.
func dmaPIO_TxDREQ(sm pio.StateMachine) uint32 {
	return _DREQ_PIO0_TX0 + uint32(sm.PIO().BlockIndex())*8 + uint32(sm.StateMachineIndex())
}

// 2.5.3.1. System DREQ Table. Only the PIO TX requests are used here.
const (
	_DREQ_PIO0_TX0 = 0x0
	_DREQ_PIO1_TX0 = 0x8
)

// abort aborts the current transfer sequence on the channel and blocks until
// all in-flight transfers have been flushed through the address and data FIFOs.
func (ch dmaChannel) abort() error {
	chMask := ch.mask()
	rp.DMA.CHAN_ABORT.Set(chMask)
	retries := timeoutRetries
	for rp.DMA.CHAN_ABORT.Get()&chMask != 0 && retries > 0 {
		gosched()
		retries--
	}
	if retries == 0 {
		return errAbort
	}
	return nil
}

func (ch dmaChannel) busy() bool {
	return ch.hw.CTRL_TRIG.Get()&rp.DMA_CH0_CTRL_TRIG_BUSY != 0
}

type dmaTxSize uint32

const (
	dmaTxSize8 dmaTxSize = iota
	dmaTxSize16
	dmaTxSize32
)

type dmaChannelConfig struct {
	CTRL uint32
}

// dmaStreamConfig returns the control word of one link of a ping-pong
// chain: 32-bit reads walking a buffer, written to a fixed FIFO register at
// the pace of dreq, then handing over to chainTo. Ring, byte swap and quiet
// IRQ stay off and the write address stays fixed, which is the zero value.
func dmaStreamConfig(chainTo uint8, dreq uint32) (cc dmaChannelConfig) {
	cc.setHighPriority(true)
	cc.setChainTo(chainTo)
	cc.setTREQ_SEL(dreq)
	cc.setReadIncrement(true)
	cc.setTransferDataSize(dmaTxSize32)
	cc.setEnable(true)
	return cc
}

// Select a Transfer Request signal. The channel uses the transfer request signal
// to pace its data transfer rate. 0x0 to 0x3a -> select DREQ n as TREQ
func (cc *dmaChannelConfig) setTREQ_SEL(dreq uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Msk)) | (uint32(dreq) << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos)
}

func (cc *dmaChannelConfig) setChainTo(chainTo uint8) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Msk)) | (uint32(chainTo) << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos)
}

func (cc *dmaChannelConfig) setTransferDataSize(size dmaTxSize) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Msk)) | (uint32(size) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos)
}

func (cc *dmaChannelConfig) setReadIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos, incr)
}

func (cc *dmaChannelConfig) setHighPriority(highPriority bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_HIGH_PRIORITY_Pos, highPriority)
}

func (cc *dmaChannelConfig) setEnable(enable bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_EN_Pos, enable)
}

func setBitPos(cc *uint32, pos uint32, bit bool) {
	if bit {
		*cc = *cc | (1 << pos)
	} else {
		*cc = *cc & ^(1 << pos) // unset bit.
	}
}
