package tpms

import (
	"encoding/binary"

	"github.com/go-ble/ble"
)

// Payloads collects the candidate payloads of an advertisement. Manufacturer
// data is listed before service data.
func Payloads(a ble.Advertisement) []Payload {
	var payloads []Payload
	// manufacturer data leads with the company id, little endian
	if md := a.ManufacturerData(); len(md) >= 2 {
		id := binary.LittleEndian.Uint16(md[:2])
		payloads = append(payloads, Manufacturer(id, md[2:]))
	}
	for _, sd := range a.ServiceData() {
		payloads = append(payloads, ServiceData(sd.Data))
	}
	return payloads
}

// DecodeAdvertisement decodes the first valid frame in an advertisement.
func DecodeAdvertisement(a ble.Advertisement) (Measurement, bool) {
	return Decode(Payloads(a))
}

// Supported reports whether the advertisement comes from a DJTPMS sensor: the
// local name must equal name, unless name is empty, and a frame must decode.
func Supported(a ble.Advertisement, name string) bool {
	if name != "" && a.LocalName() != name {
		return false
	}
	_, ok := DecodeAdvertisement(a)
	return ok
}
