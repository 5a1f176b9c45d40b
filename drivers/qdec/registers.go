package qdec

const (
	// BaseSamplePeriodUs is the hardware's finest sampling granularity.
	// Each SAMPLEPER level doubles it: 128 << level microseconds.
	BaseSamplePeriodUs = 128

	// maxSampleLevel is the coarsest SAMPLEPER setting (128<<7 = 16384 us).
	maxSampleLevel = 7

	// reportLevelSlowest: REPORTPER is programmed to its slowest setting;
	// report events are unused, polling drains the accumulators instead.
	reportLevelSlowest = 7

	// SelDisconnected is the pin-select value that detaches a peripheral
	// input/output from any physical pin.
	SelDisconnected uint32 = 0xFFFFFFFF

	// MaxErrors is the saturation point of the double-transition counter.
	MaxErrors uint16 = 0xFFFF
)

// sampleLevel returns the coarsest (most power-efficient) SAMPLEPER level
// whose period does not exceed periodUs. A longer period could miss input
// transitions. When even the base granularity exceeds periodUs, level 0 is
// the best the hardware can do.
func sampleLevel(periodUs uint32) uint8 {
	for lvl := maxSampleLevel; lvl > 0; lvl-- {
		if uint32(BaseSamplePeriodUs)<<lvl <= periodUs {
			return uint8(lvl)
		}
	}
	return 0
}
