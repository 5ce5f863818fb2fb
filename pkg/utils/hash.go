package utils

import "unicode/utf16"

// RollingHash is the 32-bit signed h = h*31 + c checksum over the UTF-16 code
// units of s. It is a cheap fingerprint, not a cryptographic hash.
func RollingHash(s string) int32 {
	return RollingHashUnits(utf16.Encode([]rune(s)))
}

// RollingHashUnits is RollingHash over raw UTF-16 code units, which may
// include an unpaired surrogate left by PrefixUTF16.
func RollingHashUnits(units []uint16) int32 {
	var h int32
	for _, c := range units {
		h = h*31 + int32(c)
	}
	return h
}
