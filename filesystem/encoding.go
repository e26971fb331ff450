package filesystem

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return true
	}

	return false
}

func lookupEncoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Errorf("unknown encoding '%s': %w", label, err)
	}

	return enc, nil
}

// Decode converts raw bytes in the given encoding to a UTF-8 string.
func Decode(raw []byte, label string) (string, error) {
	if isUTF8(label) {
		return string(raw), nil
	}

	enc, err := lookupEncoding(label)
	if err != nil {
		return "", err
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Errorf("decode %s: %w", label, err)
	}

	return string(decoded), nil
}

// Encode converts a UTF-8 string to bytes in the given encoding.
func Encode(text string, label string) ([]byte, error) {
	if isUTF8(label) {
		return []byte(text), nil
	}

	enc, err := lookupEncoding(label)
	if err != nil {
		return nil, err
	}

	encoded, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, errors.Errorf("encode %s: %w", label, err)
	}

	return encoded, nil
}
