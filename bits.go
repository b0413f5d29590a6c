package zvt

// Bit helpers for protocol config and attribute bytes. Positions count from
// the least significant bit.

func setBit(b byte, pos uint) byte {
	return b | 1<<pos
}

func clearBit(b byte, pos uint) byte {
	return b &^ (1 << pos)
}

func hasBit(b byte, pos uint) bool {
	return b&(1<<pos) != 0
}
