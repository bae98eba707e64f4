// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is a named table to be written to a workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// ReadXLSX reads a table from the named sheet of the workbook in r. The
// first row of the sheet is the header. If sheet is empty, the first
// sheet of the workbook is read.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("table: opening xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return New(), nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("table: reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return New(), nil
	}
	return parse(rows[0], rows[1:])
}

// WriteXLSX writes the sheets to w as an XLSX workbook, one worksheet
// per sheet in the order given.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	const initial = "Sheet1"
	for i, s := range sheets {
		if i == 0 {
			err := f.SetSheetName(initial, s.Name)
			if err != nil {
				return fmt.Errorf("table: naming sheet %s: %w", s.Name, err)
			}
		} else {
			_, err := f.NewSheet(s.Name)
			if err != nil {
				return fmt.Errorf("table: adding sheet %s: %w", s.Name, err)
			}
		}
		err := writeSheet(f, s)
		if err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, s Sheet) error {
	header := make([]any, len(s.Table.Columns))
	for i, c := range s.Table.Columns {
		header[i] = c.Name
	}
	err := f.SetSheetRow(s.Name, "A1", &header)
	if err != nil {
		return fmt.Errorf("table: writing sheet %s: %w", s.Name, err)
	}
	for j, r := range s.Table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, j+2)
		if err != nil {
			return err
		}
		row := []any(r)
		err = f.SetSheetRow(s.Name, cell, &row)
		if err != nil {
			return fmt.Errorf("table: writing sheet %s row %d: %w", s.Name, j, err)
		}
	}
	return nil
}
