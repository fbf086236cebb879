// Package canon provides canonical CBOR encoding helpers used across the
// wire formats: deterministic key order, no floating types, so that two
// encoders never produce different bytes for the same value.
package canon

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Mode is a CBOR encoding mode with canonical (RFC 7049 §3.9) settings.
var Mode cbor.EncMode

func init() {
	var err error
	Mode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create canonical CBOR mode: %v", err))
	}
}

// Marshal encodes v into canonical CBOR bytes.
func Marshal(v interface{}) ([]byte, error) {
	return Mode.Marshal(v)
}

// Unmarshal decodes canonical CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
