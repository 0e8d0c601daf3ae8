package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/folioport/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Transaction ID,Timestamp,Asset\nT1,2024-01-01T10:00:00+01:00,Café\n"

	r, charset, err := encoding.NewUTF8Reader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, charset)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestDecode_Windows1252(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte("date,name\n2024-01-15,Nestlé Société\n"))
	require.NoError(t, err)

	got, charset, err := encoding.Decode(bytes.NewReader(latin1))
	require.NoError(t, err)
	assert.NotEqual(t, encoding.CharsetUTF8, charset)
	assert.Equal(t, "date,name\n2024-01-15,Nestlé Société\n", got)
}

func TestDecode_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,type\n")...)

	got, charset, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, charset)
	assert.Equal(t, "date,type\n", got)
}

func TestDecode_UTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()

	input, err := enc.Bytes([]byte("date,type\n2024-01-15,Buy\n"))
	require.NoError(t, err)

	got, charset, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF16LE, charset)
	assert.Equal(t, "date,type\n2024-01-15,Buy\n", got)
}

func TestDecode_LongUTF8(t *testing.T) {
	// Multi-byte runes straddling the sniff window must not flip detection.
	input := "a" + strings.Repeat("é", 5000)

	got, charset, err := encoding.Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, charset)
	assert.Equal(t, input, got)
}

func TestDecode_Empty(t *testing.T) {
	got, charset, err := encoding.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, charset)
	assert.Empty(t, got)
}
