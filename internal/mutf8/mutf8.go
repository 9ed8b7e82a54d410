// Package mutf8 converts between Go strings and the modified UTF-8 encoding
// used by the host VM's native string interface.
//
// Modified UTF-8 differs from standard UTF-8 in two ways: U+0000 is written as
// the two-byte sequence C0 80, and supplementary characters are written as a
// pair of three-byte encoded UTF-16 surrogates instead of a four-byte sequence.
package mutf8

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/greetings-dev/greetings-bridge/domain/errors"
)

const (
	surrogateMin     = 0xD800
	highSurrogateMax = 0xDBFF
	lowSurrogateMin  = 0xDC00
	surrogateMax     = 0xDFFF
)

// Decode converts modified UTF-8 bytes to a Go string.
// It returns an *errors.EncodingError for bytes that are not valid text.
func Decode(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", &errors.EncodingError{Offset: i, Reason: "raw NUL byte"}
		case c < 0x80:
			sb.WriteByte(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || !isCont(b[i+1]) {
				return "", &errors.EncodingError{Offset: i, Reason: "truncated two-byte sequence"}
			}
			r := rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			if r != 0 && r < 0x80 {
				return "", &errors.EncodingError{Offset: i, Reason: "overlong two-byte sequence"}
			}
			sb.WriteRune(r)
			i += 2
		case c&0xF0 == 0xE0:
			r, err := decode3(b, i)
			if err != nil {
				return "", err
			}
			switch {
			case r >= surrogateMin && r <= highSurrogateMax:
				if i+3 >= len(b) || b[i+3]&0xF0 != 0xE0 {
					return "", &errors.EncodingError{Offset: i, Reason: "unpaired high surrogate"}
				}
				lo, err := decode3(b, i+3)
				if err != nil {
					return "", err
				}
				if lo < lowSurrogateMin || lo > surrogateMax {
					return "", &errors.EncodingError{Offset: i, Reason: "unpaired high surrogate"}
				}
				sb.WriteRune(utf16.DecodeRune(r, lo))
				i += 6
			case r >= lowSurrogateMin && r <= surrogateMax:
				return "", &errors.EncodingError{Offset: i, Reason: "unpaired low surrogate"}
			default:
				sb.WriteRune(r)
				i += 3
			}
		default:
			return "", &errors.EncodingError{Offset: i, Reason: "invalid lead byte"}
		}
	}
	return sb.String(), nil
}

func decode3(b []byte, i int) (rune, error) {
	if i+2 >= len(b) || !isCont(b[i+1]) || !isCont(b[i+2]) {
		return 0, &errors.EncodingError{Offset: i, Reason: "truncated three-byte sequence"}
	}
	r := rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
	if r < 0x800 {
		return 0, &errors.EncodingError{Offset: i, Reason: "overlong three-byte sequence"}
	}
	return r, nil
}

func isCont(c byte) bool {
	return c&0xC0 == 0x80
}

// EncodedLen returns the number of bytes Encode produces for s, excluding any
// terminator.
func EncodedLen(s string) int {
	n := 0
	for _, r := range s {
		n += runeLen(r)
	}
	return n
}

func runeLen(r rune) int {
	switch {
	case r == 0:
		return 2
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 6
	}
}

// Encode converts s to modified UTF-8. The result never contains a zero byte,
// so it can be NUL-terminated safely. Invalid UTF-8 in s is encoded as U+FFFD.
func Encode(s string) []byte {
	return AppendEncoded(make([]byte, 0, EncodedLen(s)), s)
}

// AppendEncoded appends the modified UTF-8 form of s to dst.
func AppendEncoded(dst []byte, s string) []byte {
	for _, r := range s {
		switch {
		case r == 0:
			dst = append(dst, 0xC0, 0x80)
		case r < 0x10000:
			dst = utf8.AppendRune(dst, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			dst = append3(dst, hi)
			dst = append3(dst, lo)
		}
	}
	return dst
}

func append3(dst []byte, r rune) []byte {
	return append(dst,
		byte(0xE0|(r>>12)&0x0F),
		byte(0x80|(r>>6)&0x3F),
		byte(0x80|r&0x3F),
	)
}
