package plot

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"runtime/debug"

	"github.com/oklog/ulid/v2"
)

// BundleProtocol identifies the serialization layout of dumped figures.
// Bump it whenever Figure changes incompatibly.
const BundleProtocol = 1

const chartModulePath = "github.com/wcharczuk/go-chart/v2"

// Bundle wraps a composed figure together with the identity of the rendering
// stack that produced it, so a dump can be reconstructed (and re-rendered
// byte-for-byte) later with the versions on record.
type Bundle struct {
	ID           string
	ChartVersion string
	Protocol     int
	Figure       Figure
}

// chartVersion reports the go-chart module version linked into this binary.
func chartVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if dep.Path == chartModulePath {
				return dep.Version
			}
		}
	}
	return "unknown"
}

// DumpFigure serializes the figure into an opaque bundle with a fresh ULID.
func DumpFigure(f *Figure) ([]byte, error) {
	b := Bundle{
		ID:           ulid.Make().String(),
		ChartVersion: chartVersion(),
		Protocol:     BundleProtocol,
		Figure:       *f,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("encode figure bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadFigure decodes a bundle produced by DumpFigure.
func LoadFigure(data []byte) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode figure bundle: %w", err)
	}
	if b.Protocol != BundleProtocol {
		return nil, fmt.Errorf("unsupported figure bundle protocol %d", b.Protocol)
	}
	return &b, nil
}
