package payload

import (
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the leading byte of every encoded payload.
const Version byte = 1

// maxDepth bounds nesting on both encode and decode.
const maxDepth = 32

var (
	ErrUnsupportedVersion = errors.New("payload: unsupported encoding version")
	ErrMalformed          = errors.New("payload: malformed encoding")
	ErrInvalidValue       = errors.New("payload: invalid value")
)

// Field numbers of the wire format. A map is a sequence of entry fields;
// each entry holds the key and exactly one value field.
const (
	fieldEntry protowire.Number = 1

	fieldKey    protowire.Number = 1
	fieldString protowire.Number = 2
	fieldInt    protowire.Number = 3
	fieldBool   protowire.Number = 4
	fieldBytes  protowire.Number = 5
	fieldMap    protowire.Number = 6
)

// Marshal encodes m. Keys are written in sorted order so equal maps
// produce identical bytes.
func Marshal(m Map) ([]byte, error) {
	b := []byte{Version}
	return appendMap(b, m, 0)
}

func appendMap(b []byte, m Map, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidValue, maxDepth)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entry, err := appendEntry(nil, k, m[k], depth)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b, nil
}

func appendEntry(b []byte, key string, v Value, depth int) ([]byte, error) {
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, key)

	switch v.kind {
	case KindString:
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, v.str)
	case KindInt:
		b = protowire.AppendTag(b, fieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v.num))
	case KindBool:
		b = protowire.AppendTag(b, fieldBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.flag))
	case KindBytes:
		b = protowire.AppendTag(b, fieldBytes, protowire.BytesType)
		b = protowire.AppendBytes(b, v.raw)
	case KindMap:
		nested, err := appendMap(nil, v.obj, depth+1)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldMap, protowire.BytesType)
		b = protowire.AppendBytes(b, nested)
	default:
		return nil, fmt.Errorf("%w: key %q has no value", ErrInvalidValue, key)
	}
	return b, nil
}

// Unmarshal decodes data produced by Marshal.
func Unmarshal(data []byte) (Map, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if data[0] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}
	return consumeMap(data[1:], 0)
}

func consumeMap(b []byte, depth int) (Map, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}
	m := Map{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]
		if num != fieldEntry || typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: unexpected field %d", ErrMalformed, num)
		}
		entry, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		key, v, err := consumeEntry(entry, depth)
		if err != nil {
			return nil, err
		}
		if _, dup := m[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformed, key)
		}
		m[key] = v
	}
	return m, nil
}

func consumeEntry(b []byte, depth int) (string, Value, error) {
	var (
		key    string
		hasKey bool
		v      Value
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", Value{}, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			key, hasKey, b = s, true, b[n:]
		case num == fieldString && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			v, b = String(s), b[n:]
		case num == fieldInt && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			v, b = Int(protowire.DecodeZigZag(x)), b[n:]
		case num == fieldBool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			v, b = Bool(protowire.DecodeBool(x)), b[n:]
		case num == fieldBytes && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			v, b = Bytes(raw), b[n:]
		case num == fieldMap && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", Value{}, malformed(n)
			}
			nested, err := consumeMap(raw, depth+1)
			if err != nil {
				return "", Value{}, err
			}
			v, b = Object(nested), b[n:]
		default:
			return "", Value{}, fmt.Errorf("%w: unexpected field %d", ErrMalformed, num)
		}
	}
	if !hasKey || v.kind == KindInvalid {
		return "", Value{}, fmt.Errorf("%w: incomplete entry", ErrMalformed)
	}
	return key, v, nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
