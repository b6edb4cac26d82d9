// Package jsonrow encodes and decodes quirkdb rows to and from the JSON
// documents stored in the keyspace, per the §6 on-disk row encoding:
// numbers stringify to minimal decimal, booleans to "true"/"false", null to
// "null", and nested arrays/objects flatten to the empty string.
package jsonrow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/quirkdb/quirkdb/internal/types"
)

// Encode serializes row to a canonical JSON object, fields in row order.
func Encode(row *types.Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range row.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("jsonrow: encode field name %q: %w", f, err)
		}
		v, _ := row.Get(f)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("jsonrow: encode field value %q: %w", f, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a JSON document into a Row, preserving source field order
// and stringifying non-string scalars. Nested arrays/objects decode to "".
// An empty or missing document decodes to an empty Row.
func Decode(data []byte) (*types.Row, error) {
	row := types.NewRow()
	if len(bytes.TrimSpace(data)) == 0 {
		return row, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("jsonrow: decode: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("jsonrow: decode: expected JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonrow: decode key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonrow: decode: non-string object key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("jsonrow: decode value for %q: %w", key, err)
		}
		row.Set(key, stringify(raw))
	}
	return row, nil
}

// DecodeRows parses a JSON object whose values are each row objects (the
// BATCH statement's payload shape), returning one Row per entry in source
// order. The outer keys themselves are not retained; BATCH derives each
// row's primary key the same way INSERT does.
func DecodeRows(data []byte) ([]*types.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("jsonrow: decode rows: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("jsonrow: decode rows: expected JSON object")
	}

	var rows []*types.Row
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonrow: decode rows: key: %w", err)
		}
		if _, ok := keyTok.(string); !ok {
			return nil, fmt.Errorf("jsonrow: decode rows: non-string object key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("jsonrow: decode rows: value: %w", err)
		}
		row, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("jsonrow: decode rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringify converts a single raw JSON value into the row's scalar-string
// representation.
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case 't':
		return "true"
	case 'f':
		return "false"
	case 'n':
		return "null"
	case '[', '{':
		return ""
	default:
		return stringifyNumber(string(trimmed))
	}
}

// stringifyNumber renders a JSON number literal in minimal decimal form,
// trimming trailing fractional zeros (mirrors the original's
// fixed-precision-then-trim approach).
func stringifyNumber(s string) string {
	if !strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	out := strconv.FormatFloat(f, 'f', 6, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	return out
}
