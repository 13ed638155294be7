package updatedoc

import "strings"

// Tags of the blocks a document may contain.
const (
	TagPerson     = "PERSON"
	TagName       = "PERNAVN"
	TagAddress    = "ADRESSEKP"
	TagPersonAddr = "PERADR"
	TagRole       = "PERROLLE"
	TagPermission = "PERKLAR"
)

const (
	rootTag       = "UPDATE"
	seekFieldsTag = "SEEKFIELDS"
	seekValuesTag = "SEEKVALUES"

	// seekSeparator joins multiple seek columns and values.
	seekSeparator = ";"
)

// Field is one column assignment.
type Field struct {
	Name  string
	Value string
}

// F is shorthand for a Field literal.
func F(name, value string) Field {
	return Field{Name: name, Value: value}
}

// Block is one dataset row to create or update.
type Block struct {
	Tag    string
	Seek   []Field // empty for create blocks
	Fields []Field
}

// IsSeek reports whether the block updates an existing row.
func (b *Block) IsSeek() bool {
	return len(b.Seek) > 0
}

// Set appends a field assignment and returns b for chaining.
// An existing assignment of the same column is replaced in place.
func (b *Block) Set(name, value string) *Block {
	for i := range b.Fields {
		if b.Fields[i].Name == name {
			b.Fields[i].Value = value
			return b
		}
	}
	b.Fields = append(b.Fields, Field{Name: name, Value: value})
	return b
}

// Get returns the value assigned to a column.
func (b *Block) Get(name string) (string, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// SeekValue returns the value a seek block matches on for a column.
func (b *Block) SeekValue(name string) (string, bool) {
	for _, f := range b.Seek {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (b *Block) seekColumns() (names, values string) {
	n := make([]string, len(b.Seek))
	v := make([]string, len(b.Seek))
	for i, f := range b.Seek {
		n[i] = f.Name
		v[i] = f.Value
	}
	return strings.Join(n, seekSeparator), strings.Join(v, seekSeparator)
}

// Document is an ordered list of blocks. The zero value is an empty
// document ready for use.
type Document struct {
	blocks []*Block
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Create appends a create block.
func (d *Document) Create(tag string) *Block {
	b := &Block{Tag: tag}
	d.blocks = append(d.blocks, b)
	return b
}

// Seek appends a block that locates an existing row by the given columns.
// At least one seek field is required; without one the block would be a
// create block.
func (d *Document) Seek(tag string, seek Field, more ...Field) *Block {
	b := &Block{Tag: tag, Seek: append([]Field{seek}, more...)}
	d.blocks = append(d.blocks, b)
	return b
}

// Blocks returns the blocks in document order.
func (d *Document) Blocks() []*Block {
	return d.blocks
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Filter returns the blocks with the given tag, in order.
func (d *Document) Filter(tag string) []*Block {
	var out []*Block
	for _, b := range d.blocks {
		if b.Tag == tag {
			out = append(out, b)
		}
	}
	return out
}

// Creates returns the create blocks with the given tag.
func (d *Document) Creates(tag string) []*Block {
	var out []*Block
	for _, b := range d.Filter(tag) {
		if !b.IsSeek() {
			out = append(out, b)
		}
	}
	return out
}

// Seeks returns the seek blocks with the given tag.
func (d *Document) Seeks(tag string) []*Block {
	var out []*Block
	for _, b := range d.Filter(tag) {
		if b.IsSeek() {
			out = append(out, b)
		}
	}
	return out
}
