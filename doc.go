// Readings from DJTPMS bluetooth tyre pressure sensors.
//
// Components
//
// - tpms: decoder for the sensor advertisements (battery voltage,
// temperature, absolute and gauge pressure)
//
// - cmd/djtpms: bluetooth LE scanner, run as root, printing readings as json
//
// - services/tpms: service supervising the scanner and publishing readings
// as events over mqtt
//
// - cmd/tpmsd: run services, distribute config and query status
//
// Devices supported
//
// - DJTPMS external tyre pressure sensors (advertised as "DJTPMS")
package djtpms
