package frame

// BytesToBits expands bytes into bits, MSB first.
func BytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1 == 1)
		}
	}
	return bits
}

// BitsToBytes packs bits MSB first. A trailing partial byte is dropped.
func BitsToBytes(bits []bool) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		out[i] = bitsToByte(bits[i*8 : i*8+8])
	}
	return out
}

func bitsToByte(bits []bool) byte {
	var v byte
	for _, bit := range bits[:8] {
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v
}

func bitsToUint16(bits []bool) uint16 {
	return uint16(bitsToByte(bits[:8]))<<8 | uint16(bitsToByte(bits[8:16]))
}
