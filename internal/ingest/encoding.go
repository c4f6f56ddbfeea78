// Package ingest loads papers, topics, rooms, chairs and constraint lines
// from delimited files, with column mapping and tolerant decoding for the
// mixed-encoding exports conference systems tend to produce.
package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// DecodeBytes converts raw file bytes to a UTF-8 string. It tries UTF-8
// first (stripping a BOM), then the configured encoding, then Latin-1 as a
// last resort. The returned name is the encoding actually used.
func DecodeBytes(raw []byte, configured string) (string, string) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}
	if cm := charmapFor(configured); cm != nil {
		if decoded, err := cm.NewDecoder().Bytes(raw); err == nil {
			return string(decoded), configured
		}
	}
	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(decoded), "latin-1"
}

func charmapFor(name string) *charmap.Charmap {
	switch name {
	case "cp1252", "windows-1252":
		return charmap.Windows1252
	case "latin-1", "iso-8859-1":
		return charmap.ISO8859_1
	default:
		return nil
	}
}

// RepairMojibake undoes the classic double-encoding damage: UTF-8 bytes
// that were decoded as cp1252 or Latin-1. It re-encodes the string and
// decodes the bytes as UTF-8; when the whole string cannot be repaired it
// falls back to repairing each cp1252-encodable run separately.
func RepairMojibake(text string) string {
	if isASCII(text) {
		return text
	}
	if fixed, ok := reencode(text); ok {
		return fixed
	}

	var out, run []byte
	flush := func() {
		if len(run) == 0 {
			return
		}
		chunk := string(run)
		run = run[:0]
		if isASCII(chunk) {
			out = append(out, chunk...)
			return
		}
		if fixed, ok := reencode(chunk); ok {
			out = append(out, fixed...)
			return
		}
		out = append(out, chunk...)
	}

	enc := charmap.Windows1252.NewEncoder()
	for _, r := range text {
		if _, err := enc.Bytes([]byte(string(r))); err == nil {
			run = append(run, string(r)...)
			continue
		}
		flush()
		out = append(out, string(r)...)
	}
	flush()
	return string(out)
}

// reencode maps the string back to single-byte form (cp1252, then Latin-1)
// and reinterprets the bytes as UTF-8.
func reencode(text string) (string, bool) {
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		raw, err := cm.NewEncoder().Bytes([]byte(text))
		if err != nil {
			continue
		}
		if utf8.Valid(raw) && len(raw) < len(text) {
			return string(raw), true
		}
	}
	return "", false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
