// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a table from CSV data with a header row. Column kinds are
// inferred from the data: columns holding only numbers are Number columns,
// columns holding only true or false are Bool columns and all others are
// String columns. Empty cells are missing values.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: reading csv: %w", err)
	}
	if len(records) == 0 {
		return New(), nil
	}
	return parse(records[0], records[1:])
}

// WriteCSV writes the table to w as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	err := cw.Write(t.header())
	if err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, v := range r {
			rec[i] = Format(v)
		}
		err = cw.Write(rec)
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
