// Package jsoncodec centralises JSON serialization for the library. All
// envelope and payload marshaling goes through sonic in std-compatible mode so
// behaviour stays identical to encoding/json while encode/decode stays off the
// hot-path profile.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var cfg = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return cfg.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return cfg.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return cfg.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	return cfg.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return cfg.NewDecoder(r).Decode(v)
}
