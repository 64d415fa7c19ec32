// Package mat reads the subset of the MATLAB Level 5 container format that
// Dynare result files use: double/single/integer numeric arrays, character
// matrices, cell arrays of character vectors, structs, and zlib-compressed
// elements, in either byte order. Everything else is recorded by class and
// skipped; callers decide whether an absent record is fatal.
package mat

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// MAT-file data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
)

// MATLAB array classes.
const (
	ClassCell   = 1
	ClassStruct = 2
	ClassChar   = 4
	ClassDouble = 6
	ClassSingle = 7
	ClassInt8   = 8
	ClassUint8  = 9
	ClassInt16  = 10
	ClassUint16 = 11
	ClassInt32  = 12
	ClassUint32 = 13
	ClassInt64  = 14
	ClassUint64 = 15
)

// Array is one decoded MATLAB array. Exactly one of Numeric, Chars, Cells or
// Fields is populated, according to Class; unsupported classes leave all of
// them empty.
type Array struct {
	Name  string
	Class uint8
	Dims  []int

	Numeric []float64         // numeric classes, widened to float64, column-major
	Chars   []rune            // ClassChar, column-major
	Cells   []*Array          // ClassCell
	Fields  map[string]*Array // ClassStruct (first struct element)
}

// IsNumeric reports whether the array holds a numeric matrix.
func (a *Array) IsNumeric() bool {
	return a.Class >= ClassDouble && a.Class <= ClassUint64
}

// String renders a char array as a single string (row vectors only; char
// matrices should go through Rows).
func (a *Array) String() string {
	return strings.TrimRight(string(a.Chars), " \x00")
}

// Rows decodes a 2-D char matrix into its row strings. MATLAB stores char
// matrices column-major with space padding, which is how older Dynare
// versions persist name lists.
func (a *Array) Rows() []string {
	if len(a.Dims) < 2 {
		return []string{a.String()}
	}
	r, c := a.Dims[0], a.Dims[1]
	if r*c != len(a.Chars) {
		return []string{a.String()}
	}
	out := make([]string, r)
	row := make([]rune, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = a.Chars[i+j*r]
		}
		out[i] = strings.TrimRight(string(row), " \x00")
	}
	return out
}

// File is a decoded MAT-file: the header description line and the top-level
// arrays keyed by name.
type File struct {
	Description string
	Arrays      map[string]*Array
}

// Open reads and decodes path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses an in-memory MAT-file.
func Decode(data []byte) (*File, error) {
	if len(data) < 128 {
		return nil, fmt.Errorf("not a MAT-file: %d bytes", len(data))
	}
	if data[0] == 0 && data[1] == 0 {
		return nil, fmt.Errorf("not a Level 5 MAT-file (v4 or corrupt header)")
	}
	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("bad endian indicator %q", data[126:128])
	}

	f := &File{
		Description: strings.TrimRight(string(data[:116]), " \x00"),
		Arrays:      map[string]*Array{},
	}
	c := &cursor{b: data, off: 128, order: order}
	for c.off < len(c.b) {
		typ, body, err := c.element()
		if err != nil {
			return nil, err
		}
		if err := f.addTopLevel(typ, body, order); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) addTopLevel(typ uint32, body []byte, order binary.ByteOrder) error {
	switch typ {
	case miCOMPRESSED:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("compressed element: %w", err)
		}
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return fmt.Errorf("compressed element: %w", err)
		}
		c := &cursor{b: inflated, order: order}
		innerTyp, innerBody, err := c.element()
		if err != nil {
			return err
		}
		return f.addTopLevel(innerTyp, innerBody, order)
	case miMATRIX:
		arr, err := parseMatrix(body, order)
		if err != nil {
			return err
		}
		if arr.Name != "" {
			f.Arrays[arr.Name] = arr
		}
		return nil
	default:
		// Unknown top-level element, skip.
		return nil
	}
}

// cursor walks data elements within a delimited byte slice, handling the
// small-element encoding and 8-byte padding.
type cursor struct {
	b     []byte
	off   int
	order binary.ByteOrder
}

func (c *cursor) done() bool { return c.off >= len(c.b) }

// element reads one tagged data element and returns its type and body.
func (c *cursor) element() (uint32, []byte, error) {
	if c.off+8 > len(c.b) {
		return 0, nil, fmt.Errorf("truncated element tag at offset %d", c.off)
	}
	first := c.order.Uint32(c.b[c.off : c.off+4])
	if first>>16 != 0 {
		// Small data element: type and size packed into the first word,
		// up to 4 bytes of data in the second.
		typ := first & 0xFFFF
		size := first >> 16
		if size > 4 {
			return 0, nil, fmt.Errorf("small element with size %d at offset %d", size, c.off)
		}
		body := c.b[c.off+4 : c.off+4+int(size)]
		c.off += 8
		return typ, body, nil
	}
	typ := first
	size := int(c.order.Uint32(c.b[c.off+4 : c.off+8]))
	start := c.off + 8
	if start+size > len(c.b) {
		return 0, nil, fmt.Errorf("element of %d bytes overruns input at offset %d", size, c.off)
	}
	body := c.b[start : start+size]
	c.off = start + size + pad8(size)
	if c.off > len(c.b) {
		// Trailing element may omit final padding.
		c.off = len(c.b)
	}
	return typ, body, nil
}

func pad8(n int) int { return (8 - n%8) % 8 }

// parseMatrix decodes one miMATRIX body.
func parseMatrix(body []byte, order binary.ByteOrder) (*Array, error) {
	c := &cursor{b: body, order: order}

	typ, flagsBody, err := c.element()
	if err != nil {
		return nil, err
	}
	if typ != miUINT32 || len(flagsBody) < 8 {
		return nil, fmt.Errorf("malformed array flags element (type %d, %d bytes)", typ, len(flagsBody))
	}
	arr := &Array{Class: uint8(order.Uint32(flagsBody[0:4]) & 0xFF)}
	complexFlag := order.Uint32(flagsBody[0:4])>>8&0x08 != 0

	typ, dimsBody, err := c.element()
	if err != nil {
		return nil, err
	}
	if typ != miINT32 {
		return nil, fmt.Errorf("malformed dimensions element (type %d)", typ)
	}
	for i := 0; i+4 <= len(dimsBody); i += 4 {
		arr.Dims = append(arr.Dims, int(int32(order.Uint32(dimsBody[i:i+4]))))
	}

	_, nameBody, err := c.element()
	if err != nil {
		return nil, err
	}
	arr.Name = string(nameBody)

	switch {
	case arr.IsNumeric():
		typ, realBody, err := c.element()
		if err != nil {
			return nil, err
		}
		arr.Numeric, err = decodeNumeric(typ, realBody, order)
		if err != nil {
			return nil, err
		}
		if complexFlag && !c.done() {
			// Imaginary part is irrelevant to IRF data; consume and drop it.
			if _, _, err := c.element(); err != nil {
				return nil, err
			}
		}
	case arr.Class == ClassChar:
		typ, charBody, err := c.element()
		if err != nil {
			return nil, err
		}
		arr.Chars, err = decodeChars(typ, charBody, order)
		if err != nil {
			return nil, err
		}
	case arr.Class == ClassCell:
		n := numElements(arr.Dims)
		for i := 0; i < n && !c.done(); i++ {
			typ, cellBody, err := c.element()
			if err != nil {
				return nil, err
			}
			if typ != miMATRIX {
				return nil, fmt.Errorf("cell %d of %q is not a matrix element (type %d)", i, arr.Name, typ)
			}
			cell, err := parseMatrix(cellBody, order)
			if err != nil {
				return nil, err
			}
			arr.Cells = append(arr.Cells, cell)
		}
	case arr.Class == ClassStruct:
		if err := parseStructFields(arr, c, order); err != nil {
			return nil, err
		}
	default:
		// Sparse, object, function handle: out of scope. The element body is
		// fully delimited, so leaving the rest unread is safe.
	}
	return arr, nil
}

func parseStructFields(arr *Array, c *cursor, order binary.ByteOrder) error {
	typ, lenBody, err := c.element()
	if err != nil {
		return err
	}
	if typ != miINT32 || len(lenBody) < 4 {
		return fmt.Errorf("malformed field name length in struct %q", arr.Name)
	}
	nameLen := int(int32(order.Uint32(lenBody[0:4])))
	if nameLen <= 0 {
		return fmt.Errorf("struct %q has field name length %d", arr.Name, nameLen)
	}

	typ, namesBody, err := c.element()
	if err != nil {
		return err
	}
	if typ != miINT8 {
		return fmt.Errorf("malformed field names in struct %q (type %d)", arr.Name, typ)
	}
	var fieldNames []string
	for i := 0; i+nameLen <= len(namesBody); i += nameLen {
		fieldNames = append(fieldNames, strings.TrimRight(string(namesBody[i:i+nameLen]), "\x00"))
	}

	// Struct arrays store numElements * numFields matrices; Dynare records
	// are 1x1 so only the first struct element is retained.
	n := numElements(arr.Dims)
	if n < 1 {
		n = 1
	}
	arr.Fields = make(map[string]*Array, len(fieldNames))
	for e := 0; e < n; e++ {
		for _, name := range fieldNames {
			if c.done() {
				return nil
			}
			typ, fieldBody, err := c.element()
			if err != nil {
				return err
			}
			if typ != miMATRIX {
				return fmt.Errorf("field %q of struct %q is not a matrix element (type %d)", name, arr.Name, typ)
			}
			field, err := parseMatrix(fieldBody, order)
			if err != nil {
				return err
			}
			if e == 0 {
				field.Name = name
				arr.Fields[name] = field
			}
		}
	}
	return nil
}

func numElements(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// decodeNumeric widens any storage type to float64. MATLAB freely narrows
// the on-disk type of double arrays when values fit in a smaller integer.
func decodeNumeric(typ uint32, body []byte, order binary.ByteOrder) ([]float64, error) {
	switch typ {
	case miDOUBLE:
		out := make([]float64, len(body)/8)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(body[i*8 : i*8+8]))
		}
		return out, nil
	case miSINGLE:
		out := make([]float64, len(body)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(order.Uint32(body[i*4 : i*4+4])))
		}
		return out, nil
	case miINT8:
		out := make([]float64, len(body))
		for i := range out {
			out[i] = float64(int8(body[i]))
		}
		return out, nil
	case miUINT8:
		out := make([]float64, len(body))
		for i := range out {
			out[i] = float64(body[i])
		}
		return out, nil
	case miINT16:
		out := make([]float64, len(body)/2)
		for i := range out {
			out[i] = float64(int16(order.Uint16(body[i*2 : i*2+2])))
		}
		return out, nil
	case miUINT16:
		out := make([]float64, len(body)/2)
		for i := range out {
			out[i] = float64(order.Uint16(body[i*2 : i*2+2]))
		}
		return out, nil
	case miINT32:
		out := make([]float64, len(body)/4)
		for i := range out {
			out[i] = float64(int32(order.Uint32(body[i*4 : i*4+4])))
		}
		return out, nil
	case miUINT32:
		out := make([]float64, len(body)/4)
		for i := range out {
			out[i] = float64(order.Uint32(body[i*4 : i*4+4]))
		}
		return out, nil
	case miINT64:
		out := make([]float64, len(body)/8)
		for i := range out {
			out[i] = float64(int64(order.Uint64(body[i*8 : i*8+8])))
		}
		return out, nil
	case miUINT64:
		out := make([]float64, len(body)/8)
		for i := range out {
			out[i] = float64(order.Uint64(body[i*8 : i*8+8]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported numeric storage type %d", typ)
	}
}

// decodeChars decodes char array storage into runes. Dynare names are ASCII;
// code units outside the BMP are not expected and not handled.
func decodeChars(typ uint32, body []byte, order binary.ByteOrder) ([]rune, error) {
	switch typ {
	case miUINT16, miUTF16:
		out := make([]rune, len(body)/2)
		for i := range out {
			out[i] = rune(order.Uint16(body[i*2 : i*2+2]))
		}
		return out, nil
	case miINT8, miUINT8, miUTF8:
		return []rune(string(body)), nil
	default:
		return nil, fmt.Errorf("unsupported char storage type %d", typ)
	}
}
