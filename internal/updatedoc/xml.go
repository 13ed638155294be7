package updatedoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// String renders the document as indented XML.
func (d *Document) String() string {
	s, err := d.Marshal()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return s
}

// Marshal renders the document as indented XML. Field values are escaped;
// empty values are written as empty elements so that they clear the column.
func (d *Document) Marshal() (string, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Encode writes the document to w.
func (d *Document) Encode(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.EncodeToken(start(rootTag)); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	for i, b := range d.blocks {
		if err := encodeBlock(enc, b); err != nil {
			return fmt.Errorf("encode block %d (%s): %w", i, b.Tag, err)
		}
	}
	if err := enc.EncodeToken(end(rootTag)); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

func encodeBlock(enc *xml.Encoder, b *Block) error {
	if err := validName(b.Tag); err != nil {
		return err
	}
	if err := enc.EncodeToken(start(b.Tag)); err != nil {
		return err
	}
	if b.IsSeek() {
		names, values := b.seekColumns()
		if err := encodeField(enc, Field{seekFieldsTag, names}); err != nil {
			return err
		}
		if err := encodeField(enc, Field{seekValuesTag, values}); err != nil {
			return err
		}
	}
	for _, f := range b.Fields {
		if err := validName(f.Name); err != nil {
			return err
		}
		if err := encodeField(enc, f); err != nil {
			return err
		}
	}
	return enc.EncodeToken(end(b.Tag))
}

func encodeField(enc *xml.Encoder, f Field) error {
	if err := enc.EncodeToken(start(f.Name)); err != nil {
		return err
	}
	if f.Value != "" {
		if err := enc.EncodeToken(xml.CharData(f.Value)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(end(f.Name))
}

func start(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

func end(name string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: name}}
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, " <>&\"'/") {
		return fmt.Errorf("invalid element name %q", name)
	}
	return nil
}

// ErrNotUpdate is returned by Parse when the root element is not <UPDATE>.
var ErrNotUpdate = errors.New("document root is not " + rootTag)

// Parse reads a document produced by Encode. It is used to inspect
// journaled payloads and by tests.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	d := New()

	var (
		depth int
		block *Block
		field string
		text  strings.Builder
		seekN string
		seekV string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if t.Name.Local != rootTag {
					return nil, ErrNotUpdate
				}
			case 2:
				block = &Block{Tag: t.Name.Local}
				seekN, seekV = "", ""
			case 3:
				field = t.Name.Local
				text.Reset()
			default:
				return nil, fmt.Errorf("parse document: unexpected element <%s> in <%s>", t.Name.Local, field)
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				switch field {
				case seekFieldsTag:
					seekN = text.String()
				case seekValuesTag:
					seekV = text.String()
				default:
					block.Fields = append(block.Fields, Field{Name: field, Value: text.String()})
				}
			case 2:
				seek, err := splitSeek(seekN, seekV)
				if err != nil {
					return nil, fmt.Errorf("parse document: block %s: %w", block.Tag, err)
				}
				block.Seek = seek
				d.blocks = append(d.blocks, block)
				block = nil
			}
			depth--
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("parse document: unexpected end of input")
	}
	return d, nil
}

// ParseString is Parse on a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func splitSeek(names, values string) ([]Field, error) {
	if names == "" && values == "" {
		return nil, nil
	}
	n := strings.Split(names, seekSeparator)
	v := strings.Split(values, seekSeparator)
	if len(n) != len(v) {
		return nil, fmt.Errorf("%d seek fields but %d seek values", len(n), len(v))
	}
	out := make([]Field, len(n))
	for i := range n {
		out[i] = Field{Name: n[i], Value: v[i]}
	}
	return out, nil
}
