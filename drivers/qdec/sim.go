package qdec

import "sync"

// SimBlock is an in-memory register file implementing Block. Tests and the
// host demo inject encoder motion with Advance and Glitch; the accumulators
// only move while the simulated peripheral is enabled and started, matching
// the hardware.
type SimBlock struct {
	mu sync.Mutex

	enabled bool
	started bool

	ledActiveHigh bool
	samplePer     uint8
	reportPer     uint8
	selA, selB    uint32
	selLED        uint32
	debounce      bool
	ledDelayUs    uint8

	shortsCleared bool
	intenCleared  bool

	acc    int32
	accDbl uint32
}

func NewSimBlock() *SimBlock {
	return &SimBlock{selA: SelDisconnected, selB: SelDisconnected, selLED: SelDisconnected}
}

func (s *SimBlock) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *SimBlock) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

func (s *SimBlock) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

func (s *SimBlock) TriggerStart() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

func (s *SimBlock) TriggerStop() {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

func (s *SimBlock) DisableShortcuts() {
	s.mu.Lock()
	s.shortsCleared = true
	s.mu.Unlock()
}

func (s *SimBlock) DisableInterrupts() {
	s.mu.Lock()
	s.intenCleared = true
	s.mu.Unlock()
}

func (s *SimBlock) SetLEDPolarity(activeHigh bool) {
	s.mu.Lock()
	s.ledActiveHigh = activeHigh
	s.mu.Unlock()
}

func (s *SimBlock) SetSamplePeriod(level uint8) {
	s.mu.Lock()
	s.samplePer = level
	s.mu.Unlock()
}

func (s *SimBlock) SetReportPeriod(level uint8) {
	s.mu.Lock()
	s.reportPer = level
	s.mu.Unlock()
}

func (s *SimBlock) SetPins(a, b, led uint32) {
	s.mu.Lock()
	s.selA, s.selB, s.selLED = a, b, led
	s.mu.Unlock()
}

func (s *SimBlock) SetDebounce(enabled bool) {
	s.mu.Lock()
	s.debounce = enabled
	s.mu.Unlock()
}

func (s *SimBlock) SetLEDDelay(us uint8) {
	s.mu.Lock()
	s.ledDelayUs = us
	s.mu.Unlock()
}

func (s *SimBlock) ReadClearAcc() (int32, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delta, double := s.acc, s.accDbl
	s.acc, s.accDbl = 0, 0
	return delta, double
}

// Advance simulates encoder motion of the given signed count. Counts are
// only accumulated while the peripheral is enabled and started.
func (s *SimBlock) Advance(counts int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || !s.started {
		return
	}
	s.acc += counts
}

// Glitch simulates n double-transition (ambiguous direction) samples.
func (s *SimBlock) Glitch(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || !s.started {
		return
	}
	s.accDbl += n
}

// Drift injects counts regardless of run state, modelling accumulator
// content of unknown provenance while the block sits idle.
func (s *SimBlock) Drift(counts int32) {
	s.mu.Lock()
	s.acc += counts
	s.mu.Unlock()
}

// SimPin is a Pin backed by nothing but a number, recording whether its
// edge events were disabled.
type SimPin struct {
	N              uint32
	EventsDisabled int
}

func (p *SimPin) Sel() uint32    { return p.N }
func (p *SimPin) DisableEvents() { p.EventsDisabled++ }
