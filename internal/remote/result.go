package remote

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/casesync/internal/xmltext"
)

const (
	resultTag = "RESULT"
	errorTag  = "ERROR"
	valueTag  = "VALUE"
)

// result is a decoded <RESULT> reply.
type result struct {
	truncated bool
	fault     string
	value     string
	rows      []Row
}

// parseResult decodes a reply. Children named rowTag become rows; other
// unknown children are ignored.
func parseResult(r io.Reader, rowTag string) (*result, error) {
	dec := xmltext.NewDecoder(r)
	res := &result{}

	var (
		depth  int
		inRow  bool
		row    Row
		child  string
		column string
		text   strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			text.Reset()
			switch depth {
			case 1:
				if t.Name.Local != resultTag {
					return nil, fmt.Errorf("unexpected root <%s>", t.Name.Local)
				}
				for _, a := range t.Attr {
					if a.Name.Local == "truncated" {
						res.truncated = a.Value == "1" || strings.EqualFold(a.Value, "true")
					}
				}
			case 2:
				child = t.Name.Local
				inRow = rowTag != "" && child == rowTag
				if inRow {
					row = make(Row)
				}
			case 3:
				column = t.Name.Local
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			switch depth {
			case 3:
				if inRow {
					row[column] = strings.TrimSpace(text.String())
				}
			case 2:
				switch {
				case inRow:
					res.rows = append(res.rows, row)
					row, inRow = nil, false
				case child == errorTag:
					res.fault = strings.TrimSpace(text.String())
				case child == valueTag:
					res.value = strings.TrimSpace(text.String())
				}
			}
			depth--
		}
	}

	if depth != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return res, nil
}
