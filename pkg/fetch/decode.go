package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrUndecodable is returned by Decode when no JSON value can be recovered.
var ErrUndecodable = errors.New("fetch: body is not decodable as JSON")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses an upstream body as leniently as possible. In order it tries
// a strict decode, a decode after stripping BOM and surrounding whitespace, a
// decode of the first JSON value when the trimmed body starts with { or [,
// and finally the first balanced {...} or [...] span found in the body.
func Decode(body []byte) (any, error) {
	if v, err := strictDecode(body); err == nil {
		return v, nil
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM))
	if v, err := strictDecode(trimmed); err == nil {
		return v, nil
	}

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if v, err := firstValue(trimmed); err == nil {
			return v, nil
		}
	}

	if span := balancedSpan(trimmed); span != nil {
		if v, err := strictDecode(span); err == nil {
			return v, nil
		}
	}

	return nil, ErrUndecodable
}

func strictDecode(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, ErrUndecodable
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, ErrUndecodable
	}
	return v, nil
}

// firstValue decodes the leading JSON value and ignores trailing bytes.
func firstValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// balancedSpan returns the first bracket-balanced object or array in b,
// skipping brackets that appear inside string literals.
func balancedSpan(b []byte) []byte {
	for start := 0; start < len(b); start++ {
		if b[start] != '{' && b[start] != '[' {
			continue
		}
		if end := matchClose(b, start); end > start {
			return b[start : end+1]
		}
	}
	return nil
}

func matchClose(b []byte, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
