// Package xmltext holds the encoding/xml plumbing shared by every XML reader
// in the module.
package xmltext

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// CharsetReader converts non-UTF-8 input to UTF-8. It is meant to be
// assigned to xml.Decoder.CharsetReader.
//
// Labels are resolved through the IANA registry; the Latin-1 family common
// in older exports is also accepted under its informal spellings.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := lookup(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// NewDecoder returns an xml.Decoder that understands the charsets accepted
// by CharsetReader.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = CharsetReader
	return dec
}

func lookup(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso8859-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "latin9", "iso-8859-15":
		return charmap.ISO8859_15, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc, nil
}
