package envelope

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed indicates an inbound frame that could not be decoded.
// Decode failures are recoverable: callers log and drop the frame.
var ErrMalformed = errors.New("malformed envelope")

// compressedFrame is the outer marker object wrapping a compressed envelope.
type compressedFrame struct {
	Compressed bool   `json:"compressed"`
	Data       string `json:"data"`
}

// Encode serializes an envelope to its wire form. With compress set, the
// JSON bytes are gzipped, base64-encoded, and wrapped in the outer marker
// object.
func Encode(env Envelope, compress bool) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress envelope: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress envelope: %w", err)
	}

	frame := compressedFrame{
		Compressed: true,
		Data:       base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	return json.Marshal(frame)
}

// Decode parses a wire frame into an envelope, unwrapping the compression
// marker first when present.
func Decode(data []byte) (Envelope, error) {
	var frame compressedFrame
	if err := json.Unmarshal(data, &frame); err == nil && frame.Compressed {
		inner, err := decompress(frame.Data)
		if err != nil {
			return Envelope{}, err
		}
		data = inner
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.MessageType == "" {
		return Envelope{}, fmt.Errorf("%w: missing message_type", ErrMalformed)
	}
	return env, nil
}

func decompress(encoded string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrMalformed, err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip stream: %v", ErrMalformed, err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip stream: %v", ErrMalformed, err)
	}
	return raw, nil
}
