//go:build nrf51

package qdec

import (
	"device/arm"
	"device/nrf"
	"machine"
	"sync"
)

// nrfBlock maps Block onto the nRF51 QDEC register file.
type nrfBlock struct{}

func (nrfBlock) Enabled() bool { return nrf.QDEC.ENABLE.Get() != 0 }
func (nrfBlock) Enable()       { nrf.QDEC.ENABLE.Set(1) }
func (nrfBlock) Disable()      { nrf.QDEC.ENABLE.Set(0) }

func (nrfBlock) TriggerStart() { nrf.QDEC.TASKS_START.Set(1) }
func (nrfBlock) TriggerStop()  { nrf.QDEC.TASKS_STOP.Set(1) }

func (nrfBlock) DisableShortcuts()  { nrf.QDEC.SHORTS.Set(0) }
func (nrfBlock) DisableInterrupts() { nrf.QDEC.INTENCLR.Set(0xFFFFFFFF) }

func (nrfBlock) SetLEDPolarity(activeHigh bool) {
	if activeHigh {
		nrf.QDEC.LEDPOL.Set(nrf.QDEC_LEDPOL_LEDPOL_ActiveHigh)
	} else {
		nrf.QDEC.LEDPOL.Set(nrf.QDEC_LEDPOL_LEDPOL_ActiveLow)
	}
}

func (nrfBlock) SetSamplePeriod(level uint8) { nrf.QDEC.SAMPLEPER.Set(uint32(level)) }
func (nrfBlock) SetReportPeriod(level uint8) { nrf.QDEC.REPORTPER.Set(uint32(level)) }

func (nrfBlock) SetPins(a, b, led uint32) {
	nrf.QDEC.PSELA.Set(a)
	nrf.QDEC.PSELB.Set(b)
	nrf.QDEC.PSELLED.Set(led)
}

func (nrfBlock) SetDebounce(enabled bool) {
	if enabled {
		nrf.QDEC.DBFEN.Set(nrf.QDEC_DBFEN_DBFEN_Enabled)
	} else {
		nrf.QDEC.DBFEN.Set(nrf.QDEC_DBFEN_DBFEN_Disabled)
	}
}

func (nrfBlock) SetLEDDelay(us uint8) { nrf.QDEC.LEDPRE.Set(uint32(us)) }

func (nrfBlock) ReadClearAcc() (int32, uint32) {
	nrf.QDEC.TASKS_READCLRACC.Set(1)
	// Settle before the latched accumulators are read back.
	arm.Asm("nop")
	arm.Asm("nop")
	arm.Asm("nop")
	return int32(nrf.QDEC.ACCREAD.Get()), nrf.QDEC.ACCDBLREAD.Get()
}

var (
	hwOnce sync.Once
	hw     *Peripheral
)

// Hardware returns the process-wide Peripheral for the chip's QDEC block.
func Hardware() *Peripheral {
	hwOnce.Do(func() { hw = NewPeripheral(nrfBlock{}) })
	return hw
}

// machinePin adapts a machine.Pin to the decoder's Pin contract. On this
// chip the pin-select registers take the raw GPIO number.
type machinePin struct {
	p machine.Pin
}

// NewPin wraps a machine.Pin for use as a phase or LED pin.
func NewPin(p machine.Pin) Pin { return machinePin{p: p} }

func (m machinePin) Sel() uint32 { return uint32(m.p) }

func (m machinePin) DisableEvents() {
	// Clearing the callback detaches the GPIOTE channel for this pin.
	_ = m.p.SetInterrupt(0, nil)
}
