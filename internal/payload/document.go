package payload

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// BondsKey is the top-level key holding the bond list, in input and output.
const BondsKey = "bonds"

// Request is a decoded input document.
type Request struct {
	Bonds []*Record
}

// Response is the output document.
type Response struct {
	Bonds []*Record `json:"bonds"`
}

// NewResponse returns a response with capacity for n bonds. Bonds is never
// nil so an empty batch encodes as [].
func NewResponse(n int) *Response {
	return &Response{Bonds: make([]*Record, 0, n)}
}

// Decode parses an input document. Empty or whitespace-only input is read
// as {}. The document must be an object; its bonds key, when present, must
// be an array of objects.
func Decode(data []byte) (*Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Request{Bonds: []*Record{}}, nil
	}

	var top map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	raw, ok := top[BondsKey]
	if !ok {
		return &Request{Bonds: []*Record{}}, nil
	}
	raw = bytes.TrimSpace(raw)

	var items []jsoniter.RawMessage
	if bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: %q must be an array", ErrMalformedPayload, BondsKey)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q must be an array", ErrMalformedPayload, BondsKey)
	}

	req := &Request{Bonds: make([]*Record, 0, len(items))}
	for i, item := range items {
		rec, err := ParseRecord(item)
		if err != nil {
			return nil, fmt.Errorf("bond %d: %w", i, err)
		}
		req.Bonds = append(req.Bonds, rec)
	}
	return req, nil
}

// ReadRequest reads r to the end and decodes it.
func ReadRequest(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return Decode(data)
}

// Encode renders a response. A non-empty indent produces indented output.
func Encode(resp *Response, indent string) ([]byte, error) {
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	if indent == "" {
		return out, nil
	}
	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, out, "", indent); err != nil {
		return nil, fmt.Errorf("indent response: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteResponse encodes resp and writes it to w in a single call.
func WriteResponse(w io.Writer, resp *Response, indent string) error {
	out, err := Encode(resp, indent)
	if err != nil {
		return err
	}
	if indent != "" {
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}
