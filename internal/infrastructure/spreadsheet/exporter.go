package spreadsheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

const defaultSheet = "Sheet1"

// ErrNotWorkbook rejects output paths that excelize would not write as .xlsx.
var ErrNotWorkbook = errors.New("output path must end in .xlsx")

// Column is one exported field. Value returning nil leaves the cell blank.
type Column struct {
	Header string
	Value  func(*domain.CommunityRecord) any
	// Link writes the value as a hyperlink labelled with its own URL.
	Link  bool
	Width float64
}

// Exporter buffers accepted records and writes them as a single-sheet workbook.
type Exporter struct {
	columns []Column
	sheet   string
	records []*domain.CommunityRecord
}

var _ ports.RecordSink = (*Exporter)(nil)

func NewExporter(sheet string, columns []Column) *Exporter {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &Exporter{columns: columns, sheet: sheet}
}

// ValidatePath checks the output path before any scraping starts.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("output path is empty")
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%w: %s", ErrNotWorkbook, path)
	}
	return nil
}

// Accept implements ports.RecordSink.
func (e *Exporter) Accept(record *domain.CommunityRecord) error {
	if record == nil {
		return errors.New("nil record")
	}
	e.records = append(e.records, record)
	return nil
}

// Len is the number of buffered rows.
func (e *Exporter) Len() int {
	return len(e.records)
}

// Flush writes the header and every buffered record to path, replacing any existing file.
func (e *Exporter) Flush(path string) (err error) {
	if err := ValidatePath(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if e.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, e.sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("create link style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, c := range e.columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(e.sheet, cell, c.Header); err != nil {
			return fmt.Errorf("write header %s: %w", c.Header, err)
		}
		if err := f.SetCellStyle(e.sheet, cell, cell, headerStyle); err != nil {
			return err
		}
		if c.Width > 0 {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(e.sheet, name, name, c.Width); err != nil {
				return err
			}
		}
	}

	for row, record := range e.records {
		for col, c := range e.columns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := e.writeCell(f, cell, c, record, linkStyle); err != nil {
				return fmt.Errorf("write %s for %s: %w", c.Header, record.Identifier, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeCell(f *excelize.File, cell string, c Column, record *domain.CommunityRecord, linkStyle int) error {
	if c.Value == nil {
		return nil
	}
	value := c.Value(record)
	if value == nil {
		return nil
	}
	if err := f.SetCellValue(e.sheet, cell, value); err != nil {
		return err
	}
	if !c.Link {
		return nil
	}

	link, ok := value.(string)
	if !ok || link == "" {
		return nil
	}
	if err := f.SetCellHyperLink(e.sheet, cell, link, "External", excelize.HyperlinkOpts{
		Display: &link,
		Tooltip: &link,
	}); err != nil {
		return err
	}
	return f.SetCellStyle(e.sheet, cell, cell, linkStyle)
}

// OptionalInt unwraps an absent count into a blank cell.
func OptionalInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

// OptionalString leaves empty strings blank.
func OptionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
