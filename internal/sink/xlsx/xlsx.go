// Package xlsx writes export artifacts as Office Open XML spreadsheets using
// excelize's stream writer, which keeps memory bounded regardless of chunk
// size. Registration with the sink factory happens in init.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gua123/sql-export/internal/sink"
)

const sheetName = "Sheet1"

func init() {
	sink.Register("xlsx", func(sink.Options) (sink.Writer, error) {
		return writer{}, nil
	})
}

type writer struct{}

func (writer) Ext() string { return ".xlsx" }

func (writer) Create(path string, columns []string) (sink.Artifact, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx stream writer: %w", err)
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := sw.SetRow(cell, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	return &artifact{file: f, sw: sw, path: path, nextRow: 2}, nil
}

type artifact struct {
	file    *excelize.File
	sw      *excelize.StreamWriter
	path    string
	nextRow int
	rows    int64
}

func (a *artifact) Append(row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, a.nextRow)
	if err != nil {
		return fmt.Errorf("xlsx row %d: %w", a.nextRow, err)
	}
	if err := a.sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("xlsx row %d: %w", a.nextRow, err)
	}
	a.nextRow++
	a.rows++
	return nil
}

// Discard drops the in-memory workbook without saving. Nothing was written
// to path yet, so there is no partial file to clean up here.
func (a *artifact) Discard() error {
	return a.file.Close()
}

func (a *artifact) Close() (sink.Info, error) {
	defer a.file.Close()
	if err := a.sw.Flush(); err != nil {
		return sink.Info{}, fmt.Errorf("xlsx flush: %w", err)
	}
	if err := a.file.SaveAs(a.path); err != nil {
		return sink.Info{}, fmt.Errorf("save %s: %w", a.path, err)
	}
	sum, err := sink.ChecksumFile(a.path)
	if err != nil {
		return sink.Info{}, err
	}
	return sink.Info{Path: a.path, Rows: a.rows, Checksum: sum}, nil
}
