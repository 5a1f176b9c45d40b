package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // e.g. "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// Link is the state reported for one encoder.
type Link string

const (
	LinkUp   Link = "up"
	LinkDown Link = "down"
)

type EncoderStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // machine-readable short code
}

// ---- Encoder capability documents ----

// Info envelope each encoder exposes (retained).
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

type EncoderInfo struct {
	PinA           int    `json:"pin_a"`
	PinB           int    `json:"pin_b"`
	LED            *int   `json:"led,omitempty"`
	SamplePeriodUs uint32 `json:"sample_period_us"`
}

// EncoderValue is the periodic position document.
type EncoderValue struct {
	Position int64  `json:"position"`
	Errors   uint16 `json:"errors"`
	TS       int64  `json:"ts_ms"`
}

// ---- Control payloads ----

type ResetPositionReq struct {
	Position int64 `json:"position"`
}

type SetRateReq struct {
	SamplePeriodUs uint32 `json:"sample_period_us"`
}

// ---- Generic replies ----

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
