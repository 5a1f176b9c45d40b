package qdec

import (
	"sync"

	"motioncode-go/errcode"
)

// Block is the quadrature-decoder register file. Implementations map these
// operations onto the real peripheral or onto a simulation.
type Block interface {
	// Enabled reads back the peripheral enable register.
	Enabled() bool
	Enable()
	Disable()

	// TriggerStart and TriggerStop fire the peripheral's task registers.
	TriggerStart()
	TriggerStop()

	DisableShortcuts()
	DisableInterrupts()

	// SetLEDPolarity selects the LED drive level during sampling.
	SetLEDPolarity(activeHigh bool)
	// SetSamplePeriod programs the SAMPLEPER level (0..7).
	SetSamplePeriod(level uint8)
	// SetReportPeriod programs the REPORTPER level (0..7).
	SetReportPeriod(level uint8)
	// SetPins programs the phase-A, phase-B and LED pin selects.
	SetPins(a, b, led uint32)
	SetDebounce(enabled bool)
	// SetLEDDelay programs the LED pre-activation time in microseconds.
	SetLEDDelay(us uint8)

	// ReadClearAcc latches and clears both accumulators, returning the
	// signed transition delta and the double-transition count observed
	// since the previous latch.
	ReadClearAcc() (delta int32, double uint32)
}

// Peripheral wraps one physical register block and arbitrates ownership
// between decoder instances. Many dormant Devices may share a Peripheral;
// at most one owns it at a time.
type Peripheral struct {
	mu    sync.Mutex
	blk   Block
	owner *Device
}

func NewPeripheral(blk Block) *Peripheral {
	return &Peripheral{blk: blk}
}

// claim takes ownership for d. It fails with Busy when another instance
// holds the block, or when the hardware enable register reads back set
// (something outside this process-side arbitration switched it on).
func (p *Peripheral) claim(d *Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner != nil || p.blk.Enabled() {
		return errcode.Busy
	}
	p.owner = d
	return nil
}

func (p *Peripheral) release(d *Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == d {
		p.owner = nil
	}
}
