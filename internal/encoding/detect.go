package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the source encoding an export was decoded from.
type Charset string

const (
	CharsetUTF8        Charset = "UTF-8"
	CharsetUTF16LE     Charset = "UTF-16LE"
	CharsetUTF16BE     Charset = "UTF-16BE"
	CharsetWindows1252 Charset = "windows-1252"
	CharsetISO8859_9   Charset = "ISO-8859-9"
)

// sniffSize is how much of the input is inspected before choosing a decoder.
const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

var decoders = map[Charset]encoding.Encoding{
	CharsetUTF16LE:     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	CharsetUTF16BE:     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	CharsetWindows1252: charmap.Windows1252,
	CharsetISO8859_9:   charmap.ISO8859_9,
}

// Detect picks the charset of a file from its first bytes.
//
// Detection order:
//  1. BOM (UTF-8, UTF-16 LE/BE)
//  2. valid UTF-8
//  3. chardet heuristics
//  4. Windows-1252
func Detect(head []byte) Charset {
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		return CharsetUTF8
	case bytes.HasPrefix(head, bomUTF16LE):
		return CharsetUTF16LE
	case bytes.HasPrefix(head, bomUTF16BE):
		return CharsetUTF16BE
	case validUTF8Prefix(head):
		return CharsetUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(head)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return CharsetUTF8
		case "ISO-8859-1", "windows-1252":
			return CharsetWindows1252
		case "ISO-8859-9":
			return CharsetISO8859_9
		}
	}

	return CharsetWindows1252
}

// validUTF8Prefix tolerates a multi-byte rune cut off at the end of the sniffed window.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return !utf8.FullRune(b[len(b)-cut:])
		}
	}

	return false
}

// NewUTF8Reader returns a reader that yields the input as UTF-8, with any UTF-8 BOM stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	charset := Detect(head)

	if charset == CharsetUTF8 {
		if bytes.HasPrefix(head, bomUTF8) {
			_, _ = br.Discard(len(bomUTF8))
		}

		return br, charset, nil
	}

	return transform.NewReader(br, decoders[charset].NewDecoder()), charset, nil
}

// Decode reads the whole input and returns it as a UTF-8 string.
func Decode(r io.Reader) (string, Charset, error) {
	utf8r, charset, err := NewUTF8Reader(r)
	if err != nil {
		return "", "", err
	}

	b, err := io.ReadAll(utf8r)
	if err != nil {
		return "", charset, fmt.Errorf("decoding %s: %w", charset, err)
	}

	return string(b), charset, nil
}
