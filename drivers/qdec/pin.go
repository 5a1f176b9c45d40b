package qdec

// Pin is the slice of a platform pin the decoder needs: a value for the
// peripheral's pin-select registers and a way to stop any edge-event
// generation previously configured on the pin. The caller keeps the pin
// valid for the lifetime of the Device.
type Pin interface {
	// Sel returns the pin-select register value for this pin.
	Sel() uint32
	// DisableEvents turns off edge-triggered event generation on the pin.
	DisableEvents()
}

// NotConnected is the sentinel used when no LED pin is wired.
var NotConnected Pin = notConnected{}

type notConnected struct{}

func (notConnected) Sel() uint32    { return SelDisconnected }
func (notConnected) DisableEvents() {}
