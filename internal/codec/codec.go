// Package codec converts configuration documents to and from bytes.
package codec

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.MarshalIndent(v, "", "  ") }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type YAMLCodec struct{}

func (YAMLCodec) Marshal(v any) ([]byte, error)   { return yaml.Marshal(v) }
func (YAMLCodec) Unmarshal(b []byte, v any) error { return yaml.Unmarshal(b, v) }

// Default is used where no codec is given.
var Default Codec = JSONCodec{}
