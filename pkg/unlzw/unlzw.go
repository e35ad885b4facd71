// Package unlzw decodes the LZW scheme written by the historic Unix
// compress(1) utility. GNSS archives still serve the short-name era product
// files as ".Z" streams.
//
// The format is not what the standard librarys compress/lzw implements:
// compress(1) grows its code width from 9 up to 16 bits, reserves code 256 as
// a dictionary reset in block mode, and pads the bit stream to a code group
// boundary whenever the width changes.
package unlzw

import (
	"errors"
	"fmt"
)

// errors
var (
	// ErrHeader is returned when the data does not start with the compress(1) magic bytes.
	ErrHeader = errors.New("unlzw: not a compress stream")

	// ErrTruncated is returned when the data ends in the middle of a code.
	ErrTruncated = errors.New("unlzw: stream ended in the middle of a code")

	// ErrCorrupt is returned on codes no valid encoder can have produced.
	ErrCorrupt = errors.New("unlzw: invalid code")
)

// Decode decompresses a complete compress(1) stream.
func Decode(data []byte) ([]byte, error) {
	if len(data) < 3 || data[0] != 0x1f || data[1] != 0x9d {
		return nil, ErrHeader
	}
	flags := int(data[2])
	if flags&0x60 != 0 {
		return nil, fmt.Errorf("unlzw: unknown flag bits %#02x", flags)
	}
	max := flags & 0x1f
	if max < 9 || max > 16 {
		return nil, fmt.Errorf("unlzw: invalid max code size %d", max)
	}
	if max == 9 {
		max = 10 // 9 never really meant 9 in historic encoders
	}
	block := flags&0x80 != 0

	bits := 9
	mask := 0x1ff
	end := 255
	if block {
		end = 256
	}

	pos := 3
	mark := pos

	// no compressed data after the header is valid and empty
	if pos == len(data) {
		return []byte{}, nil
	}
	if len(data)-pos < 2 {
		return nil, ErrTruncated
	}

	// the first code is always a literal
	buf := int(data[pos]) | int(data[pos+1])<<8
	pos += 2
	prev := buf & mask
	buf >>= bits
	left := 16 - bits
	if prev > 255 {
		return nil, ErrCorrupt
	}
	final := byte(prev)
	out := []byte{final}

	prefix := make([]uint16, 1<<16)
	suffix := make([]byte, 1<<16)
	match := make([]byte, 0, 1<<10)

	for pos < len(data) {
		// once the table fills the current width, switch to one more bit.
		// The encoder pads its output to a group boundary first, skip that.
		if end >= mask && bits < max {
			rem := (pos - mark) % bits
			if rem > 0 {
				rem = bits - rem
				if rem > len(data)-pos {
					break
				}
				pos += rem
			}
			buf, left = 0, 0
			mark = pos
			bits++
			mask = mask<<1 | 1
		}

		buf |= int(data[pos]) << left
		pos++
		left += 8
		if left < bits {
			if pos == len(data) {
				return nil, ErrTruncated
			}
			buf |= int(data[pos]) << left
			pos++
			left += 8
		}
		code := buf & mask
		buf >>= bits
		left -= bits

		// dictionary reset, back to nine bit codes
		if code == 256 && block {
			rem := (pos - mark) % bits
			if rem > 0 {
				rem = bits - rem
				if rem > len(data)-pos {
					break
				}
				pos += rem
			}
			buf, left = 0, 0
			mark = pos
			bits = 9
			mask = 0x1ff
			end = 255
			continue
		}

		temp := code
		match = match[:0]

		// a code one past the table can only be the previous match extended
		// by its own first byte
		if code > end {
			if code != end+1 || prev > end {
				return nil, ErrCorrupt
			}
			match = append(match, final)
			code = prev
		}

		// walk the table, output comes out in reverse order
		for code >= 256 {
			match = append(match, suffix[code])
			code = int(prefix[code])
		}
		match = append(match, byte(code))
		final = byte(code)

		if end < mask {
			end++
			prefix[end] = uint16(prev)
			suffix[end] = final
		}
		prev = temp

		for i := len(match) - 1; i >= 0; i-- {
			out = append(out, match[i])
		}
	}

	return out, nil
}
