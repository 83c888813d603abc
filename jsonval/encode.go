package jsonval

import (
	"math"
	"strconv"
	"strings"
)

// Encode renders a value as compact JSON text without a trailing
// newline. NaN and infinities are outside the grammar and encode as
// null rather than producing unparseable output.
func Encode(v Value) string {
	var sb strings.Builder
	encodeValue(&sb, v)
	return sb.String()
}

func encodeValue(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber:
		encodeNumber(sb, v.Num)
	case KindString:
		encodeString(sb, v.Str)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeValue(sb, item)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, key := range sortedKeys(v.Obj) {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeString(sb, key)
			sb.WriteByte(':')
			encodeValue(sb, v.Obj[key])
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}

func encodeNumber(sb *strings.Builder, n float64) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		sb.WriteString("null")
		return
	}
	// Whole values print without a fractional part so frame counters
	// and memory reads stay integer-shaped on the wire.
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		sb.WriteString(strconv.FormatInt(int64(n), 10))
		return
	}
	sb.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
}

func encodeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u`)
				const hex = "0123456789abcdef"
				sb.WriteByte(hex[(r>>12)&0xF])
				sb.WriteByte(hex[(r>>8)&0xF])
				sb.WriteByte(hex[(r>>4)&0xF])
				sb.WriteByte(hex[r&0xF])
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
