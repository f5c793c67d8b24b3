package table

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

// WriteTSV writes the table with a header row. Nulls are written as empty
// cells and object cells as JSON.
func (t *Table) WriteTSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write(t.Columns()); err != nil {
		return err
	}

	record := make([]string, t.NumColumns())
	for row := 0; row < t.Len(); row++ {
		for i, c := range t.columns {
			v := c.Values[row]
			if c.Kind == KindObject && v != nil {
				data, err := json.Marshal(v)
				if err != nil {
					return err
				}
				record[i] = string(data)
				continue
			}
			record[i] = FormatValue(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
