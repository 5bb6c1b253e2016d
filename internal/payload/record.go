// Package payload decodes and encodes the bond batch JSON document.
//
// Bond records are kept as ordered key/raw-value lists so that fields the
// calculator does not know about are written back untouched and in place.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingField     = errors.New("missing field")
	ErrInvalidField     = errors.New("invalid field")
)

// Field is a single key with its raw JSON value.
type Field struct {
	Key   string
	Value jsoniter.RawMessage
}

// Record is a JSON object that remembers key order.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// ParseRecord decodes a single JSON object. A repeated key keeps its first
// position and its last value.
func ParseRecord(data []byte) (*Record, error) {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	rec := NewRecord()
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		raw := it.SkipAndReturnBytes()
		if it.Error != nil {
			return false
		}
		// The captured bytes include whitespace between ':' and the value.
		rec.SetRaw(key, append(jsoniter.RawMessage(nil), bytes.TrimSpace(raw)...))
		return true
	})
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, iter.Error)
	}
	return rec, nil
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Raw returns the raw JSON value stored under key.
func (r *Record) Raw(key string) (jsoniter.RawMessage, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// SetRaw stores a raw JSON value. Existing keys are overwritten in place,
// new keys are appended.
func (r *Record) SetRaw(key string, raw jsoniter.RawMessage) {
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = raw
		return
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: raw})
}

// Set marshals v and stores it under key.
func (r *Record) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	r.SetRaw(key, raw)
	return nil
}

// Merge marshals v as a JSON object and sets each of its fields, in the
// order the encoder emits them.
func (r *Record) Merge(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode merge source: %w", err)
	}
	src, err := ParseRecord(raw)
	if err != nil {
		return err
	}
	for _, f := range src.fields {
		r.SetRaw(f.Key, f.Value)
	}
	return nil
}

// Clone returns a shallow copy; raw values are shared.
func (r *Record) Clone() *Record {
	c := &Record{
		fields: make([]Field, len(r.fields)),
		index:  make(map[string]int, len(r.index)),
	}
	copy(c.fields, r.fields)
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}

// MarshalJSON writes the fields in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	stream := json.BorrowStream(&buf)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range r.fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Key)
		stream.Write(f.Value)
	}
	stream.WriteObjectEnd()
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the record's contents with the decoded object.
func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := ParseRecord(data)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// --- typed accessors ---

// Float reads a numeric field. JSON numbers and strings holding a decimal
// number are accepted. Values beyond the float64 range come back as ±Inf.
func (r *Record) Float(key string) (float64, error) {
	_, text, err := r.number(key)
	if err != nil {
		return 0, err
	}
	// The syntax is already validated; ParseFloat does not expand the exponent.
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w %q: %q is not a number", ErrInvalidField, key, text)
	}
	return f, nil
}

// Int reads a whole-number field. 5, 5.0 and "5" are accepted, 5.5 is not.
func (r *Record) Int(key string) (int, error) {
	d, text, err := r.number(key)
	if err != nil {
		return 0, err
	}
	if d.IsZero() {
		return 0, nil
	}
	// Out of range for any non-zero coefficient; the comparisons below would
	// otherwise rescale to 10^exponent.
	if d.Exponent() > maxWholeDigits {
		return 0, fmt.Errorf("%w %q: %s is out of range", ErrInvalidField, key, text)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w %q: %s is not a whole number", ErrInvalidField, key, text)
	}
	if d.GreaterThan(decimal.NewFromInt(maxWhole)) || d.LessThan(decimal.NewFromInt(-maxWhole)) {
		return 0, fmt.Errorf("%w %q: %s is out of range", ErrInvalidField, key, text)
	}
	return int(d.IntPart()), nil
}

// Text reads a field as a string. Non-string JSON values are returned as
// their raw JSON text.
func (r *Record) Text(key string) (string, error) {
	raw, ok := r.Raw(key)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrMissingField, key)
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrInvalidField, key, err)
		}
		return s, nil
	}
	return string(raw), nil
}

// maxWhole bounds whole-number fields to the int32 range; maxWholeDigits is
// its digit count.
const (
	maxWhole       = int64(1<<31 - 1)
	maxWholeDigits = 10
)

// number parses a numeric field and also returns its text, unquoted and
// trimmed.
func (r *Record) number(key string) (decimal.Decimal, string, error) {
	raw, ok := r.Raw(key)
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w %q", ErrMissingField, key)
	}

	text := string(raw)
	switch {
	case len(raw) == 0:
		return decimal.Zero, "", fmt.Errorf("%w %q: empty value", ErrInvalidField, key)
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, "", fmt.Errorf("%w %q: %v", ErrInvalidField, key, err)
		}
		text = strings.TrimSpace(text)
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
	default:
		return decimal.Zero, "", fmt.Errorf("%w %q: %s is not a number", ErrInvalidField, key, text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("%w %q: %q is not a number", ErrInvalidField, key, text)
	}
	return d, text, nil
}
