// Package qdec drives a hardware quadrature-decoder peripheral and exposes
// incremental encoder position tracking.
//
// The peripheral accumulates raw phase-transition counts in hardware and
// must be drained periodically to avoid overflow; Poll folds each drain into
// an unbounded 64-bit position and a saturating double-transition error
// counter. The physical block is a singleton: several Device instances may
// exist, but only one can be started at a time (time-multiplexed use, e.g.
// one motor's encoder active at a time).
package qdec

import (
	"sync"

	"motioncode-go/errcode"
	"motioncode-go/systick"
	"motioncode-go/x/mathx"
)

// TickRegistrar is the subset of the system ticker used for automatic
// polling.
type TickRegistrar interface {
	Register(systick.Component)
	Deregister(systick.Component)
}

// Config describes one decoder instance. The zero value of every field is
// the hardware reset default; in particular LEDActiveLow false means the LED
// is driven high during sampling.
type Config struct {
	// SamplePeriodUs is the minimum time between hardware samples of the
	// phase inputs, in microseconds. 0 selects the 128 us floor.
	SamplePeriodUs uint32
	// LEDDelayUs holds the LED on for this long before each sample, to
	// let phototransistor-style encoders stabilise.
	LEDDelayUs uint8
	// LEDActiveLow inverts the LED drive polarity.
	LEDActiveLow bool
	// Debounce enables the peripheral's input debounce filter.
	Debounce bool
}

// Pins names the external pin resources the decoder samples and drives.
// A nil LED means no LED is wired.
type Pins struct {
	A, B Pin
	LED  Pin
}

// Device tracks one encoder through the shared peripheral.
//
// Poll may run in a timer/tick context while Start/Stop/accessors run in
// application context; a single mutex keeps the shared state consistent
// between the two.
type Device struct {
	hw   *Peripheral
	pins Pins

	mu       sync.Mutex
	cfg      Config
	position int64
	errors   uint16
	running  bool

	tickWanted bool
	registrar  TickRegistrar
	registered bool
}

// New creates a dormant decoder instance. No hardware is touched until
// Start.
func New(hw *Peripheral, pins Pins, cfg Config) *Device {
	if pins.LED == nil {
		pins.LED = NotConnected
	}
	if cfg.SamplePeriodUs == 0 {
		cfg.SamplePeriodUs = BaseSamplePeriodUs
	}
	return &Device{hw: hw, pins: pins, cfg: cfg}
}

// SetSamplePeriod sets the minimum time between hardware samples in
// microseconds. Values below the 128 us hardware floor are rejected with
// InvalidParam and leave the configured period unchanged. The new period
// takes effect on the next Start.
func (d *Device) SetSamplePeriod(periodUs uint32) error {
	if periodUs < BaseSamplePeriodUs {
		return errcode.InvalidParam
	}
	d.mu.Lock()
	d.cfg.SamplePeriodUs = periodUs
	d.mu.Unlock()
	return nil
}

// SamplePeriod returns the configured minimum sample period in microseconds.
func (d *Device) SamplePeriod() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.SamplePeriodUs
}

// Start claims the peripheral and programs it for this instance. It fails
// with Busy when the block is enabled or any instance (including this one)
// is already running. On success the instance is running and, if system-tick
// polling was requested, registered with the ticker.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return errcode.Busy
	}
	if err := d.hw.claim(d); err != nil {
		return err
	}

	// No stale tick registration may drain the block mid-configuration.
	d.deregisterTickLocked()

	blk := d.hw.blk
	blk.DisableShortcuts()
	blk.DisableInterrupts()
	blk.SetLEDPolarity(!d.cfg.LEDActiveLow)
	blk.SetSamplePeriod(sampleLevel(d.cfg.SamplePeriodUs))
	blk.SetReportPeriod(reportLevelSlowest)
	blk.SetPins(d.pins.A.Sel(), d.pins.B.Sel(), d.pins.LED.Sel())
	blk.SetDebounce(d.cfg.Debounce)
	blk.SetLEDDelay(d.cfg.LEDDelayUs)

	// Hardware capture and pin edge events are mutually exclusive on these
	// pins; the pins may have been generating events for a software
	// emulation mode before hardware takeover.
	if d.pins.LED.Sel() != SelDisconnected {
		d.pins.LED.DisableEvents()
	}
	d.pins.A.DisableEvents()
	d.pins.B.DisableEvents()

	// Discard anything accumulated while the block sat idle.
	blk.ReadClearAcc()
	blk.Enable()
	blk.TriggerStart()
	d.running = true

	if d.tickWanted {
		d.registerTickLocked()
	}
	return nil
}

// Stop halts the peripheral and releases it for other instances. It is
// idempotent; stopping a dormant instance is a no-op for the hardware.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Device) stopLocked() {
	d.deregisterTickLocked()
	if !d.running {
		return
	}
	blk := d.hw.blk
	blk.TriggerStop()
	blk.Disable()
	d.running = false
	d.hw.release(d)
}

// Poll drains the hardware accumulators into position and error state.
//
// It must be called often enough that the hardware cannot overflow between
// calls: about ten times per second for encoders producing up to 10000
// counts per second, scaled with the attached encoder's maximum edge rate.
// While the instance is not running, Poll does nothing.
func (d *Device) Poll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	delta, double := d.hw.blk.ReadClearAcc()
	d.position += int64(delta)
	d.errors = mathx.SatAddU16(d.errors, double)
}

// Tick implements systick.Component.
func (d *Device) Tick() { d.Poll() }

// Position returns the absolute position as of the last Poll.
func (d *Device) Position() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// Errors returns the number of double-transition samples seen since the
// last reset, saturating at MaxErrors. A growing value means the sample
// period is too long for the encoder's speed.
func (d *Device) Errors() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors
}

// ResetPosition overwrites the position, typically on an index or end-stop
// signal. Hardware state and the error counter are untouched.
func (d *Device) ResetPosition(position int64) {
	d.mu.Lock()
	d.position = position
	d.mu.Unlock()
}

// ResetErrors clears the double-transition counter.
func (d *Device) ResetErrors() {
	d.mu.Lock()
	d.errors = 0
	d.mu.Unlock()
}

// Running reports whether this instance currently owns the peripheral.
func (d *Device) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// EnableSystemTick has reg call Poll automatically once per system tick.
// If the instance is running the registration is immediate; otherwise the
// intent is recorded and applied on the next successful Start. Enabling
// twice registers at most once.
//
// This should not be used if Poll is already called from another regular
// timer context.
func (d *Device) EnableSystemTick(reg TickRegistrar) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered && d.registrar != reg {
		// Leave the old ticker before switching; otherwise its
		// registration would never be removed.
		d.deregisterTickLocked()
	}
	d.tickWanted = true
	d.registrar = reg
	if d.running {
		d.registerTickLocked()
	}
}

// DisableSystemTick stops automatic polling. Dormant instances simply drop
// the recorded intent.
func (d *Device) DisableSystemTick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickWanted = false
	d.deregisterTickLocked()
}

func (d *Device) registerTickLocked() {
	if d.registered || d.registrar == nil {
		return
	}
	d.registrar.Register(d)
	d.registered = true
}

func (d *Device) deregisterTickLocked() {
	if !d.registered {
		return
	}
	d.registrar.Deregister(d)
	d.registered = false
}

// Close forces Stop, releasing the peripheral and any tick registration
// regardless of whether the caller stopped explicitly.
func (d *Device) Close() error {
	d.Stop()
	return nil
}
