package payload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMarshalRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		in   Map
	}{
		{name: "Empty map", in: Map{}},
		{
			name: "Number and string",
			in: Map{
				"number": Int(42),
				"string": String("Hello World"),
			},
		},
		{
			name: "All kinds",
			in: Map{
				"neg":   Int(-7),
				"yes":   Bool(true),
				"no":    Bool(false),
				"blob":  Bytes([]byte{0x00, 0xff, 0x10}),
				"empty": String(""),
				"nested": Object(Map{
					"host": String("db.internal"),
					"port": Int(5432),
					"deeper": Object(Map{
						"ok": Bool(true),
					}),
				}),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Marshal(tc.in)
			require.NoError(t, err, "Marshal failed")
			assert.Equal(t, Version, data[0], "Encoding should start with the version byte")

			out, err := Unmarshal(data)
			require.NoError(t, err, "Unmarshal failed")
			assert.True(t, tc.in.Equal(out), "Decoded map should equal the input: %v vs %v", tc.in, out)
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	m := Map{"b": Int(2), "a": Int(1), "c": String("three")}

	first, err := Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalRejectsInvalidValue(t *testing.T) {
	_, err := Marshal(Map{"zero": {}})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestMarshalRejectsDeepNesting(t *testing.T) {
	m := Map{"leaf": Int(1)}
	for i := 0; i < maxDepth+2; i++ {
		m = Map{"n": Object(m)}
	}
	_, err := Marshal(m)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUnmarshalErrors(t *testing.T) {
	valid, err := Marshal(Map{"k": String("v")})
	require.NoError(t, err)

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{name: "Empty input", data: nil, want: ErrMalformed},
		{name: "Unknown version", data: append([]byte{9}, valid[1:]...), want: ErrUnsupportedVersion},
		{name: "Truncated", data: valid[:len(valid)-1], want: ErrMalformed},
		{name: "Garbage field", data: []byte{Version, 0xff, 0xff}, want: ErrMalformed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal(tc.data)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(String("1")))
	assert.False(t, Bytes([]byte("a")).Equal(Bytes([]byte("b"))))
	assert.False(t, Map{"a": Int(1)}.Equal(Map{"b": Int(1)}))
}

func TestBytesCopiesInput(t *testing.T) {
	src := []byte("secret")
	v := Bytes(src)
	src[0] = 'X'

	raw, ok := v.Raw()
	require.True(t, ok)
	assert.Equal(t, []byte("secret"), raw)
}

func TestFromInterfaceYAML(t *testing.T) {
	doc := `
user: admin
port: 5432
tls: true
extra:
  region: eu-west-1
`
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	m, err := FromInterface(raw)
	require.NoError(t, err)

	want := Map{
		"user":  String("admin"),
		"port":  Int(5432),
		"tls":   Bool(true),
		"extra": Object(Map{"region": String("eu-west-1")}),
	}
	assert.True(t, want.Equal(m), "got %v", m)

	back := m.Interface()
	assert.Equal(t, "admin", back["user"])
	assert.Equal(t, int64(5432), back["port"])
}

func TestFromInterfaceRejectsUnsupported(t *testing.T) {
	_, err := FromInterface(map[string]any{"list": []any{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = FromInterface(map[string]any{"pi": 3.14})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = FromInterface(map[string]any{"huge": 1e20})
	assert.ErrorIs(t, err, ErrInvalidValue)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte("n: 18446744073709551615"), &raw))
	_, err = FromInterface(raw)
	assert.ErrorIs(t, err, ErrInvalidValue, "Integers above int64 must not wrap")

	m, err := FromInterface(map[string]any{"max": uint64(math.MaxInt64)})
	require.NoError(t, err)
	n, ok := m["max"].Int64()
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), n)
}
