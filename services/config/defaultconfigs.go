package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgSim = `{
  "encoder": {
      "encoders": [
          {
              "id": "sim",
              "params": {
                  "pin_a": 1,
                  "pin_b": 2,
                  "autostart": true,
                  "use_system_tick": true,
                  "telemetry_ms": 500
              }
          }
      ]
  },
  "heartbeat": {
      "interval": 10
  }
}`

var embeddedConfigs = map[string][]byte{
	"sim": []byte(cfgSim),
}
