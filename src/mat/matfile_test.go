package mat

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

// matBuilder assembles synthetic Level 5 MAT-files for tests.
type matBuilder struct {
	order binary.ByteOrder
}

func (b *matBuilder) u32(v uint32) []byte {
	out := make([]byte, 4)
	b.order.PutUint32(out, v)
	return out
}

func (b *matBuilder) element(typ uint32, body []byte) []byte {
	out := append(b.u32(typ), b.u32(uint32(len(body)))...)
	out = append(out, body...)
	return append(out, make([]byte, pad8(len(body)))...)
}

func (b *matBuilder) smallElement(typ uint32, body []byte) []byte {
	if len(body) > 4 {
		panic("small element body too large")
	}
	out := make([]byte, 8)
	b.order.PutUint32(out[0:4], typ|uint32(len(body))<<16)
	copy(out[4:], body)
	return out
}

// matrix emits a full miMATRIX element. smallName exercises the packed
// small-element encoding for the name subelement.
func (b *matBuilder) matrix(class uint8, name string, dims []int32, smallName bool, payload ...[]byte) []byte {
	flags := make([]byte, 8)
	b.order.PutUint32(flags[0:4], uint32(class))
	var dimBody []byte
	for _, d := range dims {
		dimBody = append(dimBody, b.u32(uint32(d))...)
	}
	var body []byte
	body = append(body, b.element(miUINT32, flags)...)
	body = append(body, b.element(miINT32, dimBody)...)
	if smallName && len(name) >= 1 && len(name) <= 4 {
		body = append(body, b.smallElement(miINT8, []byte(name))...)
	} else {
		body = append(body, b.element(miINT8, []byte(name))...)
	}
	for _, p := range payload {
		body = append(body, p...)
	}
	return b.element(miMATRIX, body)
}

func (b *matBuilder) doubleVec(name string, values []float64) []byte {
	body := make([]byte, 8*len(values))
	for i, v := range values {
		b.order.PutUint64(body[i*8:i*8+8], math.Float64bits(v))
	}
	return b.matrix(ClassDouble, name, []int32{1, int32(len(values))}, len(name) <= 4,
		b.element(miDOUBLE, body))
}

// charMatrix stores rows as a space-padded column-major char matrix, the way
// older Dynare versions persist name lists.
func (b *matBuilder) charMatrix(name string, rows []string) []byte {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	body := make([]byte, len(rows)*width)
	for i, r := range rows {
		for j := 0; j < width; j++ {
			ch := byte(' ')
			if j < len(r) {
				ch = r[j]
			}
			body[i+j*len(rows)] = ch
		}
	}
	return b.matrix(ClassChar, name, []int32{int32(len(rows)), int32(width)}, false,
		b.element(miUINT8, body))
}

// cellStrings stores values as a cell array of char row vectors, the newer
// Dynare layout.
func (b *matBuilder) cellStrings(name string, values []string) []byte {
	var cells []byte
	for _, v := range values {
		cells = append(cells, b.matrix(ClassChar, "", []int32{1, int32(len(v))}, true,
			b.element(miUINT8, []byte(v)))...)
	}
	return b.matrix(ClassCell, name, []int32{1, int32(len(values))}, false, cells)
}

func (b *matBuilder) structArray(name string, fieldNames []string, fields ...[]byte) []byte {
	const nameLen = 32
	lenBody := b.u32(nameLen)
	var namesBody []byte
	for _, n := range fieldNames {
		padded := make([]byte, nameLen)
		copy(padded, n)
		namesBody = append(namesBody, padded...)
	}
	payload := [][]byte{b.element(miINT32, lenBody), b.element(miINT8, namesBody)}
	payload = append(payload, fields...)
	return b.matrix(ClassStruct, name, []int32{1, 1}, false, payload...)
}

func (b *matBuilder) file(elements ...[]byte) []byte {
	header := make([]byte, 128)
	copy(header, "MATLAB 5.0 MAT-file, synthetic test fixture")
	for i := len("MATLAB 5.0 MAT-file, synthetic test fixture"); i < 116; i++ {
		header[i] = ' '
	}
	if b.order == binary.LittleEndian {
		header[124], header[125] = 0x00, 0x01
		header[126], header[127] = 'I', 'M'
	} else {
		header[124], header[125] = 0x01, 0x00
		header[126], header[127] = 'M', 'I'
	}
	out := header
	for _, e := range elements {
		out = append(out, e...)
	}
	return out
}

func dynareFixture(b *matBuilder) []byte {
	mRecord := b.structArray("M_",
		[]string{"endo_names", "endo_names_long", "exo_names", "exo_names_long"},
		b.charMatrix("", []string{"y", "pi"}),
		b.cellStrings("", []string{"Output", "Inflation"}),
		b.cellStrings("", []string{"e", "u"}),
		b.cellStrings("", []string{"preference shock", "u"}),
	)
	irfs := b.structArray("irfs",
		[]string{"y_e", "pi_e", "y_u", "note"},
		b.doubleVec("", []float64{0.5, 0.25, 0.125}),
		b.doubleVec("", []float64{-0.1, -0.05, -0.025}),
		b.doubleVec("", []float64{1, 2, 3}),
		b.matrix(ClassChar, "", []int32{1, 4}, true, b.element(miUINT8, []byte("junk"))),
	)
	ooRecord := b.structArray("oo_", []string{"irfs"}, irfs)
	return b.file(mRecord, ooRecord)
}

func TestDecode_DynareDocument(t *testing.T) {
	b := &matBuilder{order: binary.LittleEndian}
	f, err := Decode(dynareFixture(b))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	doc, err := NewDocument(f)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}

	wantMeta := model.Metadata{
		Endo:     []string{"y", "pi"},
		EndoLong: []string{"Output", "Inflation"},
		Exo:      []string{"e", "u"},
		ExoLong:  []string{"preference shock", "u"},
	}
	if diff := cmp.Diff(wantMeta, doc.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	// The char diagnostic field must be filtered out at materialization.
	if _, ok := doc.Fields["note"]; ok {
		t.Fatalf("non-numeric field leaked into the field map")
	}
	if len(doc.Fields) != 3 {
		t.Fatalf("expected 3 numeric fields, got %d", len(doc.Fields))
	}

	reg, err := model.NewRegistry(doc.Metadata)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	col, err := irf.Extract(doc.Fields, reg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := irf.Collection{
		"e": irf.ResponseTable{"y": {0.5, 0.25, 0.125}, "pi": {-0.1, -0.05, -0.025}},
		"u": irf.ResponseTable{"y": {1, 2, 3}},
	}
	if diff := cmp.Diff(want, col); diff != "" {
		t.Fatalf("extraction mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_BigEndian(t *testing.T) {
	b := &matBuilder{order: binary.BigEndian}
	f, err := Decode(b.file(b.doubleVec("x", []float64{1.5, -2.5})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a := f.Arrays["x"]
	if a == nil || !a.IsNumeric() {
		t.Fatalf("array x missing or wrong class: %+v", a)
	}
	if diff := cmp.Diff([]float64{1.5, -2.5}, a.Numeric); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_CompressedElement(t *testing.T) {
	b := &matBuilder{order: binary.LittleEndian}
	raw := b.doubleVec("z", []float64{3, 4, 5})

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}

	f, err := Decode(b.file(b.element(miCOMPRESSED, z.Bytes())))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a := f.Arrays["z"]
	if a == nil {
		t.Fatalf("compressed array not decoded")
	}
	if diff := cmp.Diff([]float64{3, 4, 5}, a.Numeric); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsNonMatInput(t *testing.T) {
	if _, err := Decode([]byte("definitely not a mat file")); err == nil {
		t.Fatalf("expected error for short input")
	}
	junk := make([]byte, 200)
	if _, err := Decode(junk); err == nil {
		t.Fatalf("expected error for zeroed header")
	}
}

func TestNewDocument_MissingRecords(t *testing.T) {
	b := &matBuilder{order: binary.LittleEndian}

	f, err := Decode(b.file(b.doubleVec("x", []float64{1})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := NewDocument(f); err == nil {
		t.Fatalf("expected error when M_ is absent")
	}

	// M_ and oo_ present, but oo_ has no irfs struct.
	mRecord := b.structArray("M_",
		[]string{"endo_names", "endo_names_long", "exo_names", "exo_names_long"},
		b.cellStrings("", []string{"y"}),
		b.cellStrings("", []string{"Output"}),
		b.cellStrings("", []string{"e"}),
		b.cellStrings("", []string{"e"}),
	)
	ooRecord := b.structArray("oo_", []string{"steady_state"}, b.doubleVec("", []float64{0}))
	f, err = Decode(b.file(mRecord, ooRecord))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	_, err = NewDocument(f)
	var miss *model.MissingAttributeError
	if !errors.As(err, &miss) || miss.Attr != "irfs" {
		t.Fatalf("expected missing irfs attribute, got %v", err)
	}
}

func TestNewDocument_MissingNameListSurfacesThroughValidate(t *testing.T) {
	b := &matBuilder{order: binary.LittleEndian}
	mRecord := b.structArray("M_",
		[]string{"endo_names", "exo_names", "exo_names_long"}, // endo_names_long absent
		b.cellStrings("", []string{"y"}),
		b.cellStrings("", []string{"e"}),
		b.cellStrings("", []string{"e"}),
	)
	irfs := b.structArray("irfs", []string{"y_e"}, b.doubleVec("", []float64{1}))
	ooRecord := b.structArray("oo_", []string{"irfs"}, irfs)
	f, err := Decode(b.file(mRecord, ooRecord))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	doc, err := NewDocument(f)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	_, err = model.NewRegistry(doc.Metadata)
	var miss *model.MissingAttributeError
	if !errors.As(err, &miss) || miss.Attr != "endo_names_long" {
		t.Fatalf("expected missing endo_names_long, got %v", err)
	}
}

func TestCharMatrixRows_ColumnMajor(t *testing.T) {
	b := &matBuilder{order: binary.LittleEndian}
	f, err := Decode(b.file(b.charMatrix("names", []string{"y", "pi", "rk"})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a := f.Arrays["names"]
	if a == nil || a.Class != ClassChar {
		t.Fatalf("char matrix missing: %+v", a)
	}
	if diff := cmp.Diff([]string{"y", "pi", "rk"}, a.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}
