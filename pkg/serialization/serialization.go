// Package serialization provides the stream codecs used for cache snapshots.
// Every codec writes values back to back, so a snapshot can be read one entry
// at a time until io.EOF.
package serialization

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// JSONType 以 JSON 行格式編碼
	JSONType = "json"
	// GobType 以 gob 格式編碼，類型資訊每個串流只傳一次
	GobType = "gob"
	// MsgpackType 以 MessagePack 格式編碼
	MsgpackType = "msgpack"
)

// ErrUnsupportedType is returned by Lookup for unknown codec names.
var ErrUnsupportedType = errors.New("unsupported serialization type")

// Decoder reads successive values from a stream.
type Decoder interface {
	Decode(v any) error
}

// Encoder writes successive values to a stream.
type Encoder interface {
	Encode(v any) error
}

// EncoderFunc wraps a writer in an Encoder.
type EncoderFunc func(io.Writer) Encoder

// DecoderFunc wraps a reader in a Decoder.
type DecoderFunc func(io.Reader) Decoder

func JSONEncoder(w io.Writer) Encoder    { return json.NewEncoder(w) }
func JSONDecoder(r io.Reader) Decoder    { return json.NewDecoder(r) }
func GobEncoder(w io.Writer) Encoder     { return gob.NewEncoder(w) }
func GobDecoder(r io.Reader) Decoder     { return gob.NewDecoder(r) }
func MsgpackEncoder(w io.Writer) Encoder { return msgpack.NewEncoder(w) }
func MsgpackDecoder(r io.Reader) Decoder { return msgpack.NewDecoder(r) }

type codec struct {
	enc EncoderFunc
	dec DecoderFunc
}

var codecs = map[string]codec{
	JSONType:    {JSONEncoder, JSONDecoder},
	GobType:     {GobEncoder, GobDecoder},
	MsgpackType: {MsgpackEncoder, MsgpackDecoder},
}

// Lookup returns the codec pair registered under name. The empty name selects
// JSON.
func Lookup(name string) (EncoderFunc, DecoderFunc, error) {
	if name == "" {
		name = JSONType
	}
	c, ok := codecs[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	return c.enc, c.dec, nil
}
