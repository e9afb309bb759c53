package lower

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes p in msgpack form.
func Encode(w io.Writer, p *Plan) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}

// Decode reads a plan written by Encode.
func Decode(r io.Reader) (*Plan, error) {
	var p Plan
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// Marshal is Encode into a byte slice.
func Marshal(p *Plan) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
