package tpms

import "github.com/sigurn/crc8"

// CRC-8 over the channel id and the first four frame bytes: MSB first,
// polynomial 0x2f, initial value 0xdf, no final xor.
var crcTable = crc8.MakeTable(crc8.Params{
	Poly: 0x2F,
	Init: 0xDF,
	Name: "CRC-8/DJTPMS",
})

func checksum(data []byte) byte {
	return crc8.Checksum(data, crcTable)
}
