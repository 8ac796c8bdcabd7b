// Package tpms decodes the advertisements broadcast by DJTPMS tyre pressure
// sensors.
//
// A sensor broadcasts a 12 byte frame preceded by a 2 byte channel id. The
// channel id is either sent on the wire or reported as the manufacturer id of
// the advertisement, in which case its byte order is not reliable. Decode
// tries each possible placement and accepts the first frame whose checksum
// verifies.
package tpms

const (
	// PayloadMinLength is the shortest payload that can hold a frame.
	PayloadMinLength = 12
	// AtmosphericPressure in kPa, subtracted to give gauge pressure.
	AtmosphericPressure = 101

	frameLength    = 12
	prefixedLength = frameLength + 2
)

// Payload is a raw advertisement buffer. Tagged payloads come from a
// manufacturer data slot and carry its 16 bit identifier.
type Payload struct {
	Data   []byte
	Tag    uint16
	Tagged bool
}

// Manufacturer returns a payload from a manufacturer data slot.
func Manufacturer(id uint16, data []byte) Payload {
	return Payload{Data: data, Tag: id, Tagged: true}
}

// ServiceData returns an untagged payload from a service data slot.
func ServiceData(data []byte) Payload {
	return Payload{Data: data}
}

// Measurement is a decoded sensor reading.
type Measurement struct {
	BatteryVoltage   float64 // V
	Temperature      int     // °C
	AbsolutePressure int     // kPa
	GaugePressure    int     // kPa, never negative
}

type frame struct {
	cid0, cid1 byte
	body       []byte
}

func (f frame) valid() bool {
	input := []byte{f.cid0, f.cid1, f.body[0], f.body[1], f.body[2], f.body[3]}
	return checksum(input) == f.body[5]
}

func (f frame) measurement() Measurement {
	absolute := int(f.body[2])<<8 | int(f.body[3])
	gauge := absolute - AtmosphericPressure
	if gauge < 0 {
		gauge = 0
	}
	return Measurement{
		BatteryVoltage:   float64(f.body[0]) / 10.0,
		Temperature:      int(int8(f.body[1])),
		AbsolutePressure: absolute,
		GaugePressure:    gauge,
	}
}

// Decode returns the measurement from the first payload holding a valid
// frame. The boolean is false when no payload matched.
func Decode(payloads []Payload) (Measurement, bool) {
	for _, p := range payloads {
		if m, ok := decodePayload(p); ok {
			return m, true
		}
	}
	return Measurement{}, false
}

func decodePayload(p Payload) (m Measurement, ok bool) {
	if len(p.Data) < PayloadMinLength {
		return
	}
	candidates(p, func(f frame) bool {
		if !f.valid() {
			return true
		}
		m, ok = f.measurement(), true
		return false
	})
	return
}

// candidates yields the possible frames of a payload in priority order until
// yield returns false.
//
// For a tagged payload the trailing 14 bytes are tried first for each byte
// order of the tag, provided their prefix matches. The trailing 12 bytes are
// then tried unchecked, with the tag standing in for the prefix. Untagged
// payloads only have the 14 byte form.
func candidates(p Payload, yield func(frame) bool) {
	data := p.Data
	if !p.Tagged {
		if len(data) >= prefixedLength {
			w := data[len(data)-prefixedLength:]
			yield(frame{w[0], w[1], w[2:]})
		}
		return
	}

	lo, hi := byte(p.Tag), byte(p.Tag>>8)
	pairs := [][2]byte{{lo, hi}}
	if lo != hi {
		pairs = append(pairs, [2]byte{hi, lo})
	}

	if len(data) >= prefixedLength {
		w := data[len(data)-prefixedLength:]
		for _, pair := range pairs {
			if w[0] == pair[0] && w[1] == pair[1] {
				if !yield(frame{pair[0], pair[1], w[2:]}) {
					return
				}
			}
		}
	}
	if len(data) >= frameLength {
		body := data[len(data)-frameLength:]
		for _, pair := range pairs {
			if !yield(frame{pair[0], pair[1], body}) {
				return
			}
		}
	}
}
