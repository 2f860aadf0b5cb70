package ir

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary schema version. Bump when the node or package layout changes.
const encodeSchemaVersion uint16 = 1

type binPayload struct {
	Schema  uint16
	Package *Package
}

// Encode serializes p to the binary IR form.
func Encode(p *Package) ([]byte, error) {
	return msgpack.Marshal(binPayload{Schema: encodeSchemaVersion, Package: p})
}

// Decode deserializes a binary IR package.
func Decode(data []byte) (*Package, error) {
	var payload binPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Schema != encodeSchemaVersion {
		return nil, fmt.Errorf("ir binary schema %d not supported (want %d)", payload.Schema, encodeSchemaVersion)
	}
	if payload.Package == nil {
		return nil, fmt.Errorf("ir binary payload has no package")
	}
	return payload.Package, nil
}
