// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// Class files store strings in "modified UTF-8": NUL is encoded on two bytes
// and supplementary characters as UTF-16 surrogate pairs of three bytes each.

func encodeMUTF8(s string) []byte {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			buf = append(buf, byte(r))
		case r < 0x800:
			buf = append(buf, 0xc0|byte(r>>6), 0x80|byte(r&0x3f))
		case r < 0x10000:
			buf = appendMUTF8Unit(buf, uint16(r))
		default:
			hi, lo := utf16.EncodeRune(r)
			buf = appendMUTF8Unit(buf, uint16(hi))
			buf = appendMUTF8Unit(buf, uint16(lo))
		}
	}
	return buf
}

func appendMUTF8Unit(buf []byte, u uint16) []byte {
	return append(buf, 0xe0|byte(u>>12), 0x80|byte((u>>6)&0x3f), 0x80|byte(u&0x3f))
}

func decodeMUTF8(b []byte) (string, error) {
	var (
		sb    strings.Builder
		units []uint16
	)
	sb.Grow(len(b))
	flush := func() {
		if len(units) > 0 {
			sb.WriteString(string(utf16.Decode(units)))
			units = units[:0]
		}
	}
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			flush()
			sb.WriteByte(c)
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(b) || b[i+1]&0xc0 != 0x80 {
				return "", fmt.Errorf("invalid modified UTF-8 sequence at byte %d", i)
			}
			flush()
			sb.WriteRune(rune(c&0x1f)<<6 | rune(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(b) || b[i+1]&0xc0 != 0x80 || b[i+2]&0xc0 != 0x80 {
				return "", fmt.Errorf("invalid modified UTF-8 sequence at byte %d", i)
			}
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("invalid modified UTF-8 lead byte 0x%02x at %d", c, i)
		}
	}
	flush()
	return sb.String(), nil
}
