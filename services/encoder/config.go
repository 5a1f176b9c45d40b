package encoder

import "encoding/json"

// Config is supplied on the "config/encoder" bus topic.
type Config struct {
	Encoders []Def `json:"encoders"`
}

// Def describes one decoder instance to manage. Instances are built dormant;
// only one can hold the peripheral at a time, so most definitions exist to be
// started in turn.
type Def struct {
	ID     string `json:"id"`
	Params Params `json:"params"`
}

type Params struct {
	PinA int  `json:"pin_a"`
	PinB int  `json:"pin_b"`
	LED  *int `json:"led,omitempty"`

	SamplePeriodUs uint32 `json:"sample_period_us,omitempty"` // 0 => 128 us floor
	LEDDelayUs     uint8  `json:"led_delay_us,omitempty"`
	LEDActiveLow   bool   `json:"led_active_low,omitempty"`
	Debounce       bool   `json:"debounce,omitempty"`

	// TelemetryMs publishes the value document this often while running.
	// 0 disables periodic telemetry.
	TelemetryMs int `json:"telemetry_ms,omitempty"`
	// UseSystemTick has the system ticker drive Poll; otherwise the
	// telemetry timer (or read_now) drains the hardware.
	UseSystemTick bool `json:"use_system_tick,omitempty"`
	// AutoStart attempts Start as soon as the instance is built.
	AutoStart bool `json:"autostart,omitempty"`
}

// decodeJSON accepts raw bytes, a JSON string, or an already-decoded value.
func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
