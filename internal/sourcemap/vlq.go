package sourcemap

import "fmt"

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// base64Index maps a base64 character back to its 6-bit value, or -1.
var base64Index [256]int8

func init() {
	for i := range base64Index {
		base64Index[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		base64Index[base64Chars[i]] = int8(i)
	}
}

// AppendVLQ appends the source-map VLQ encoding of value to buf.
// The sign is carried in the least-significant bit of the first group;
// each character holds 5 data bits plus a continuation bit.
func AppendVLQ(buf []byte, value int) []byte {
	var vlq uint
	if value < 0 {
		vlq = (uint(-value) << 1) | 1
	} else {
		vlq = uint(value) << 1
	}
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationBit
		}
		buf = append(buf, base64Chars[digit])
		if vlq == 0 {
			return buf
		}
	}
}

// EncodeVLQ returns the VLQ encoding of value as a string.
func EncodeVLQ(value int) string {
	return string(AppendVLQ(nil, value))
}

// DecodeVLQ decodes one VLQ value from the start of s, returning the value
// and the number of bytes consumed. It is the exact inverse of EncodeVLQ.
func DecodeVLQ(s string) (value int, n int, err error) {
	var result uint
	shift := uint(0)
	for n < len(s) {
		idx := base64Index[s[n]]
		if idx < 0 {
			return 0, 0, fmt.Errorf("sourcemap: invalid VLQ character %q", s[n])
		}
		digit := uint(idx)
		result |= (digit & vlqBaseMask) << shift
		n++
		if digit&vlqContinuationBit == 0 {
			value = int(result >> 1)
			if result&1 != 0 {
				value = -value
			}
			return value, n, nil
		}
		shift += vlqBaseShift
	}
	return 0, 0, fmt.Errorf("sourcemap: truncated VLQ sequence")
}
