package table

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

func init() {
	gob.Register(&Table{})
}

// wireColumn is the gob form of a column. Nulls are tracked in a mask because
// gob cannot carry nil interface values.
type wireColumn struct {
	Name       string
	Kind       Kind
	Nulls      []bool
	Strings    []string
	Ints       []int64
	Floats     []float64
	Bools      []bool
	Objects    [][]byte
	Categories []string
}

// GobEncode implements gob.GobEncoder
func (t *Table) GobEncode() ([]byte, error) {
	wire := make([]wireColumn, 0, len(t.columns))
	for _, c := range t.columns {
		wc := wireColumn{
			Name:       c.Name,
			Kind:       c.Kind,
			Nulls:      make([]bool, len(c.Values)),
			Categories: c.Categories,
		}
		for i, v := range c.Values {
			if v == nil {
				wc.Nulls[i] = true
			}
			if err := wc.appendValue(v); err != nil {
				return nil, fmt.Errorf("failed to encode column %q row %d: %w", c.Name, i, err)
			}
		}
		wire = append(wire, wc)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// appendValue stores v in the slot matching its dynamic type. Every row gets
// an entry in exactly one slice, so the slices are decoded by a type tag.
func (wc *wireColumn) appendValue(v any) error {
	switch val := v.(type) {
	case nil:
		wc.Objects = append(wc.Objects, nil)
	case string:
		wc.Strings = append(wc.Strings, val)
		wc.Objects = append(wc.Objects, []byte{'s'})
	case int64:
		wc.Ints = append(wc.Ints, val)
		wc.Objects = append(wc.Objects, []byte{'i'})
	case float64:
		wc.Floats = append(wc.Floats, val)
		wc.Objects = append(wc.Objects, []byte{'f'})
	case bool:
		wc.Bools = append(wc.Bools, val)
		wc.Objects = append(wc.Objects, []byte{'b'})
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		wc.Objects = append(wc.Objects, append([]byte{'j'}, data...))
	}
	return nil
}

// GobDecode implements gob.GobDecoder
func (t *Table) GobDecode(data []byte) error {
	var wire []wireColumn
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}

	t.columns = nil
	t.index = make(map[string]int, len(wire))
	for _, wc := range wire {
		values := make([]any, len(wc.Nulls))
		var si, ii, fi, bi int
		for i := range values {
			if wc.Nulls[i] {
				continue
			}
			tag := wc.Objects[i]
			switch tag[0] {
			case 's':
				values[i] = wc.Strings[si]
				si++
			case 'i':
				values[i] = wc.Ints[ii]
				ii++
			case 'f':
				values[i] = wc.Floats[fi]
				fi++
			case 'b':
				values[i] = wc.Bools[bi]
				bi++
			case 'j':
				v, err := decodeObject(tag[1:])
				if err != nil {
					return fmt.Errorf("failed to decode column %q row %d: %w", wc.Name, i, err)
				}
				values[i] = v
			}
		}
		t.index[wc.Name] = len(t.columns)
		t.columns = append(t.columns, &Column{
			Name:       wc.Name,
			Kind:       wc.Kind,
			Values:     values,
			Categories: wc.Categories,
		})
	}
	return nil
}

// decodeObject reads an object cell back with the number handling of ReadJSON,
// so nested integers stay int64
func decodeObject(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeJSON(v), nil
}
