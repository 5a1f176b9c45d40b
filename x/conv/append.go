// Package conv holds allocation-free integer formatting for telemetry paths
// that must not pull in fmt or strconv on MCU builds.
package conv

// AppendUint appends the base-10 representation of u to dst.
func AppendUint(dst []byte, u uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	if u == 0 {
		return append(dst, '0')
	}
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the base-10 representation of n to dst.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-n))
	}
	return AppendUint(dst, uint64(n))
}
