package driver

import (
	"fmt"
	"os"

	"sluice/internal/ir"
)

// IRExt is the file extension of the binary IR form.
const IRExt = ".sir"

// WriteIR serializes pkg to its binary form at path.
func WriteIR(path string, pkg *ir.Package) error {
	data, err := ir.Encode(pkg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", pkg.Name, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadIR loads a binary IR package from path.
func ReadIR(path string) (*ir.Package, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller
	if err != nil {
		return nil, err
	}
	pkg, err := ir.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pkg, nil
}
