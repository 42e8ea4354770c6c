// Package plaintext handles text-native uploads: .txt, .md and anything else
// that is already UTF-8 on the wire.
package plaintext

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Parse(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not valid utf-8 text: %s", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}
