package crc

const (
	// Poly is the CCITT generator polynomial x^16 + x^12 + x^5 + 1.
	Poly = 0x1021
	// Init is the initial register value (CRC-16/CCITT-FALSE).
	Init = 0xFFFF
)

// Checker computes CRC16-CCITT one bit at a time, MSB first.
// The zero value is not ready to use, call Reset or use New.
type Checker struct {
	Poly uint16
	Init uint16

	crc uint16
}

func New() *Checker {
	c := &Checker{Poly: Poly, Init: Init}
	c.Reset()
	return c
}

func (c *Checker) Reset() {
	c.crc = c.Init
}

func (c *Checker) Update(b byte) {
	x := uint16(b) << 8
	for range 8 {
		bit := (c.crc^x)&0x8000 != 0
		c.crc <<= 1
		if bit {
			c.crc ^= c.Poly
		}
		x <<= 1
	}
}

// Write feeds p into the register. It never fails.
func (c *Checker) Write(p []byte) (int, error) {
	for _, b := range p {
		c.Update(b)
	}
	return len(p), nil
}

func (c *Checker) Sum16() uint16 {
	return c.crc
}

// Checksum returns the CRC16-CCITT of data.
func Checksum(data []byte) uint16 {
	c := New()
	c.Write(data)
	return c.Sum16()
}
