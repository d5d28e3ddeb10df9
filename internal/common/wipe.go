package common

// WipeByteArray zeroes a sensitive byte slice, e.g. a password buffer that
// is no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
