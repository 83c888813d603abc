package jsonval

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SyntaxError describes malformed input with the byte offset where
// decoding stopped.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Decode parses a single JSON value from text. Trailing content after
// the top-level value is rejected unless it is whitespace.
func Decode(text string) (Value, error) {
	d := &decoder{text: text}
	d.skipSpace()
	v, err := d.value()
	if err != nil {
		return Value{}, err
	}
	d.skipSpace()
	if d.pos < len(d.text) {
		return Value{}, d.errorf("trailing data after value")
	}
	return v, nil
}

// decoder is a recursive-descent scanner over raw text tracking a
// cursor index.
type decoder struct {
	text string
	pos  int
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.text) {
		switch d.text[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) value() (Value, error) {
	if d.pos >= len(d.text) {
		return Value{}, d.errorf("unexpected end of input")
	}
	switch c := d.text[d.pos]; {
	case c == '{':
		return d.object()
	case c == '[':
		return d.array()
	case c == '"':
		s, err := d.string()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == 't', c == 'f':
		return d.boolean()
	case c == 'n':
		if err := d.literal("null"); err != nil {
			return Value{}, err
		}
		return Null(), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return d.number()
	default:
		return Value{}, d.errorf("unexpected character %q", c)
	}
}

func (d *decoder) literal(want string) error {
	if !strings.HasPrefix(d.text[d.pos:], want) {
		return d.errorf("invalid literal, expected %q", want)
	}
	d.pos += len(want)
	return nil
}

func (d *decoder) boolean() (Value, error) {
	if d.text[d.pos] == 't' {
		if err := d.literal("true"); err != nil {
			return Value{}, err
		}
		return Bool(true), nil
	}
	if err := d.literal("false"); err != nil {
		return Value{}, err
	}
	return Bool(false), nil
}

// number uses a greedy character-class scan, then defers to the
// platform float parser. NaN and infinity literals are not part of the
// grammar and never reach here.
func (d *decoder) number() (Value, error) {
	start := d.pos
	for d.pos < len(d.text) {
		c := d.text[d.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			d.pos++
			continue
		}
		break
	}
	raw := d.text[start:d.pos]
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		d.pos = start
		return Value{}, d.errorf("invalid number %q", raw)
	}
	return Number(n), nil
}

func (d *decoder) string() (string, error) {
	d.pos++ // opening quote
	var sb strings.Builder
	for {
		if d.pos >= len(d.text) {
			return "", d.errorf("unterminated string")
		}
		c := d.text[d.pos]
		switch {
		case c == '"':
			d.pos++
			return sb.String(), nil
		case c == '\\':
			d.pos++
			if err := d.escape(&sb); err != nil {
				return "", err
			}
		case c < 0x20:
			return "", d.errorf("raw control character in string")
		default:
			sb.WriteByte(c)
			d.pos++
		}
	}
}

func (d *decoder) escape(sb *strings.Builder) error {
	if d.pos >= len(d.text) {
		return d.errorf("unterminated escape")
	}
	c := d.text[d.pos]
	d.pos++
	switch c {
	case '"':
		sb.WriteByte('"')
	case '\\':
		sb.WriteByte('\\')
	case '/':
		sb.WriteByte('/')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'u':
		r, err := d.unicodeEscape()
		if err != nil {
			return err
		}
		// Combine surrogate pairs when the peer sends them.
		if utf16.IsSurrogate(r) && d.pos+1 < len(d.text) && d.text[d.pos] == '\\' && d.text[d.pos+1] == 'u' {
			d.pos += 2
			r2, err := d.unicodeEscape()
			if err != nil {
				return err
			}
			r = utf16.DecodeRune(r, r2)
		}
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		sb.WriteRune(r)
	default:
		return d.errorf("invalid escape character %q", c)
	}
	return nil
}

func (d *decoder) unicodeEscape() (rune, error) {
	if d.pos+4 > len(d.text) {
		return 0, d.errorf("truncated \\u escape")
	}
	n, err := strconv.ParseUint(d.text[d.pos:d.pos+4], 16, 32)
	if err != nil {
		return 0, d.errorf("invalid \\u escape %q", d.text[d.pos:d.pos+4])
	}
	d.pos += 4
	return rune(n), nil
}

func (d *decoder) array() (Value, error) {
	d.pos++ // '['
	arr := []Value{}
	d.skipSpace()
	if d.pos < len(d.text) && d.text[d.pos] == ']' {
		d.pos++
		return Value{Kind: KindArray, Arr: arr}, nil
	}
	for {
		d.skipSpace()
		item, err := d.value()
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, item)
		d.skipSpace()
		if d.pos >= len(d.text) {
			return Value{}, d.errorf("unterminated array")
		}
		switch d.text[d.pos] {
		case ',':
			d.pos++
		case ']':
			d.pos++
			return Value{Kind: KindArray, Arr: arr}, nil
		default:
			return Value{}, d.errorf("expected ',' or ']' in array")
		}
	}
}

func (d *decoder) object() (Value, error) {
	d.pos++ // '{'
	obj := map[string]Value{}
	d.skipSpace()
	if d.pos < len(d.text) && d.text[d.pos] == '}' {
		d.pos++
		return Value{Kind: KindObject, Obj: obj}, nil
	}
	for {
		d.skipSpace()
		if d.pos >= len(d.text) || d.text[d.pos] != '"' {
			return Value{}, d.errorf("expected object key")
		}
		key, err := d.string()
		if err != nil {
			return Value{}, err
		}
		d.skipSpace()
		if d.pos >= len(d.text) || d.text[d.pos] != ':' {
			return Value{}, d.errorf("expected ':' after object key")
		}
		d.pos++
		d.skipSpace()
		field, err := d.value()
		if err != nil {
			return Value{}, err
		}
		obj[key] = field
		d.skipSpace()
		if d.pos >= len(d.text) {
			return Value{}, d.errorf("unterminated object")
		}
		switch d.text[d.pos] {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return Value{Kind: KindObject, Obj: obj}, nil
		default:
			return Value{}, d.errorf("expected ',' or '}' in object")
		}
	}
}
