package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ServerErrorColumn is the single column the web service returns instead of data on failure
const ServerErrorColumn = "Something is not entirely good:"

// ErrNoColumns is returned when a body holds no header at all
var ErrNoColumns = errors.New("no columns to parse from input")

// ReadTSV parses a tab separated body with a header row.
// Column kinds are inferred: int, then float, then bool ("True"/"False"), else string.
// Empty cells become nulls.
func ReadTSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read TSV header: %w", err)
	}

	raw := make([][]string, len(header))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read TSV line %d: %w", line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("TSV line %d has %d fields, header has %d", line, len(record), len(header))
		}
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	t := &Table{index: make(map[string]int, len(header))}
	for i, name := range header {
		if err := t.SetColumn(inferColumn(name, raw[i])); err != nil {
			return nil, err
		}
	}

	if err := CheckServerError(t); err != nil {
		return nil, err
	}
	return t, nil
}

func inferColumn(name string, cells []string) *Column {
	values := make([]any, len(cells))

	if parsed, ok := parseAll(cells, func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) }); ok {
		copy(values, parsed)
		return &Column{Name: name, Kind: KindInt, Values: values}
	}
	if parsed, ok := parseAll(cells, func(s string) (any, error) { return strconv.ParseFloat(s, 64) }); ok {
		copy(values, parsed)
		return &Column{Name: name, Kind: KindFloat, Values: values}
	}
	if parsed, ok := parseAll(cells, parsePythonBool); ok {
		copy(values, parsed)
		return &Column{Name: name, Kind: KindBool, Values: values}
	}

	for i, s := range cells {
		if s != "" {
			values[i] = s
		}
	}
	return &Column{Name: name, Kind: KindString, Values: values}
}

// parseAll parses every non-empty cell; it fails if any cell fails or all cells are empty
func parseAll(cells []string, parse func(string) (any, error)) ([]any, bool) {
	out := make([]any, len(cells))
	seen := false
	for i, s := range cells {
		if s == "" {
			continue
		}
		v, err := parse(s)
		if err != nil {
			return nil, false
		}
		out[i] = v
		seen = true
	}
	return out, seen
}

func parsePythonBool(s string) (any, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean: %q", s)
}

// ReadJSON parses a JSON body holding either an array of records or an
// object mapping column names to arrays. Key order of the first appearance is kept.
func ReadJSON(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoColumns
	}

	var t *Table
	switch data[0] {
	case '[':
		t, err = readRecords(data)
	case '{':
		t, err = readColumns(data)
	default:
		return nil, fmt.Errorf("unexpected JSON document starting with %q", data[0])
	}
	if err != nil {
		return nil, err
	}

	if err := CheckServerError(t); err != nil {
		return nil, err
	}
	return t, nil
}

func readRecords(data []byte) (*Table, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}

	var order []string
	cells := make(map[string][]any)
	for row, rec := range records {
		keys, values, err := orderedObject(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JSON record %d: %w", row, err)
		}
		for i, k := range keys {
			col, ok := cells[k]
			if !ok {
				order = append(order, k)
				col = make([]any, row)
			}
			cells[k] = append(col, values[i])
		}
		for _, k := range order {
			if len(cells[k]) < row+1 {
				cells[k] = append(cells[k], nil)
			}
		}
	}

	t := &Table{index: make(map[string]int, len(order))}
	for _, k := range order {
		if err := t.SetColumn(typedColumn(k, cells[k])); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readColumns(data []byte) (*Table, error) {
	keys, values, err := orderedObject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON columns: %w", err)
	}

	t := &Table{index: make(map[string]int, len(keys))}
	for i, k := range keys {
		var cells []any
		switch v := values[i].(type) {
		case []any:
			cells = v
		case map[string]any:
			cells = indexedCells(v)
		default:
			cells = []any{v}
		}
		if err := t.SetColumn(typedColumn(k, cells)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// indexedCells orders {"0": a, "1": b} style columns by their numeric index
func indexedCells(m map[string]any) []any {
	cells := make([]any, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(cells) {
			continue
		}
		cells[i] = v
	}
	return cells
}

// orderedObject decodes a JSON object keeping its key order
func orderedObject(data []byte) ([]string, []any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}

	var keys []string
	var values []any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, normalizeJSON(v))
	}
	return keys, values, nil
}

// normalizeJSON turns json.Number into int64 or float64, recursively
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = normalizeJSON(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeJSON(val[k])
		}
		return val
	}
	return v
}

// typedColumn infers the kind of decoded JSON values
func typedColumn(name string, cells []any) *Column {
	kind := KindString
	first := true
	for _, v := range cells {
		if v == nil {
			continue
		}
		var k Kind
		switch v.(type) {
		case string:
			k = KindString
		case int64:
			k = KindInt
		case float64:
			k = KindFloat
		case bool:
			k = KindBool
		default:
			k = KindObject
		}
		if first {
			kind, first = k, false
			continue
		}
		if k != kind {
			kind = widen(kind, k)
		}
	}
	if kind == KindFloat {
		for i, v := range cells {
			if n, ok := v.(int64); ok {
				cells[i] = float64(n)
			}
		}
	}
	return &Column{Name: name, Kind: kind, Values: cells}
}

// CheckServerError returns an error when t is the service's error frame
func CheckServerError(t *Table) error {
	if t.NumColumns() != 1 || t.columns[0].Name != ServerErrorColumn {
		return nil
	}
	msgs := make([]string, 0, t.Len())
	for i := range t.columns[0].Values {
		if s, ok := t.columns[0].String(i); ok {
			msgs = append(msgs, s)
		}
	}
	return fmt.Errorf("server error: %s", strings.Join(msgs, " "))
}
