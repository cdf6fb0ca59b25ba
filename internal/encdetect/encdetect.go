// Package encdetect sniffs the text encoding of audit dump files and builds
// decoding readers for them. Collector scripts produce UTF-8 on Linux and
// macOS, but Windows collectors commonly emit UTF-16LE, and older dumps turn
// up in 8-bit codepages.
package encdetect

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Canonical encoding names returned by Detect and accepted by NewReader.
const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
	Latin1  = "latin-1"
)

// sampleSize bounds how much of a file Detect reads.
const sampleSize = 4096

// Detect sniffs the encoding of the file at path. The second return is false
// when the file cannot be read or looks binary; such files are skipped by
// classification, not failed.
func Detect(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", false
	}
	sample := buf[:n]
	if len(sample) == 0 {
		return UTF8, true
	}

	switch {
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return UTF16LE, true
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return UTF16BE, true
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return UTF8, true
	}

	if enc, ok := sniffUTF16(sample); ok {
		return enc, true
	}

	if bytes.IndexByte(sample, 0x00) >= 0 {
		// NUL bytes without a UTF-16 shape: treat as binary.
		return "", false
	}

	if utf8.Valid(trimPartialRune(sample)) {
		return UTF8, true
	}
	return Latin1, true
}

// sniffUTF16 looks for the alternating-zero-byte shape of BOM-less UTF-16
// encoded ASCII-heavy text.
func sniffUTF16(sample []byte) (string, bool) {
	pairs := len(sample) / 2
	if pairs < 8 {
		return "", false
	}
	var evenZero, oddZero int
	for i := 0; i+1 < len(sample); i += 2 {
		if sample[i] == 0x00 {
			evenZero++
		}
		if sample[i+1] == 0x00 {
			oddZero++
		}
	}
	threshold := pairs / 3
	switch {
	case oddZero > threshold && evenZero <= threshold:
		return UTF16LE, true
	case evenZero > threshold && oddZero <= threshold:
		return UTF16BE, true
	}
	return "", false
}

// trimPartialRune drops a trailing incomplete UTF-8 sequence cut off by the
// sample boundary so it does not fail validation.
func trimPartialRune(sample []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(sample); i++ {
		end := len(sample) - 1 - i
		b := sample[end]
		if b < utf8.RuneSelf {
			return sample
		}
		if b >= 0xC0 { // leading byte of a multi-byte sequence
			if r, _ := utf8.DecodeRune(sample[end:]); r == utf8.RuneError {
				return sample[:end]
			}
			return sample
		}
	}
	return sample
}

// NewReader wraps r in a decoder for the named encoding, yielding UTF-8.
// Unknown names fall back to passing bytes through unchanged.
func NewReader(r io.Reader, enc string) io.Reader {
	return transform.NewReader(r, decoderFor(enc))
}

func decoderFor(enc string) transform.Transformer {
	switch enc {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case Latin1:
		return charmap.ISO8859_1.NewDecoder()
	default:
		// BOMOverride strips a UTF-8 BOM and defers to any UTF-16 BOM that
		// detection missed.
		return unicode.BOMOverride(encoding.Nop.NewDecoder())
	}
}

// Open opens the file at path and returns a reader that decodes it from the
// named encoding to UTF-8. Closing the returned ReadCloser closes the file.
func Open(path, enc string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &decodedFile{f: f, r: NewReader(f, enc)}, nil
}

type decodedFile struct {
	f *os.File
	r io.Reader
}

func (d *decodedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decodedFile) Close() error               { return d.f.Close() }
