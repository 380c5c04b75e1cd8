package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"AffiliationChecker/internal/domain"
)

const (
	sheetName      = "Results"
	flaggedColor   = "FFFF00"
	evidenceColumn = "J"
)

// xlsxSink builds the workbook in memory and saves it on Close. A resumed sink loads
// the previous workbook and appends below its last row.
type xlsxSink struct {
	mu           sync.Mutex
	path         string
	file         *excelize.File
	lock         *flock.Flock
	flaggedStyle int
	nextRow      int
	closed       bool
}

func newXLSXSink(path string, lock *flock.Flock, resume bool) (*xlsxSink, error) {
	keep := false
	if resume {
		var err error
		if keep, err = existingOutput(path); err != nil {
			return nil, err
		}
	}

	var (
		f   *excelize.File
		err error
	)
	if keep {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		if idx, _ := f.GetSheetIndex(sheetName); idx < 0 {
			_ = f.Close()
			return nil, fmt.Errorf("output %s has no %q sheet to resume", path, sheetName)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("name sheet: %w", err)
		}
	}

	flaggedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{flaggedColor}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flagged style: %w", err)
	}

	nextRow := 2
	if keep {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("read existing rows: %w", err)
		}
		nextRow = max(len(rows)+1, 2)
	} else if err := writeHeader(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &xlsxSink{path: path, file: f, lock: lock, flaggedStyle: flaggedStyle, nextRow: nextRow}, nil
}

func writeHeader(f *excelize.File) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)
	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	_ = f.SetColWidth(sheetName, "A", "A", 6)
	_ = f.SetColWidth(sheetName, "B", "I", 20)
	_ = f.SetColWidth(sheetName, evidenceColumn, evidenceColumn, 80)
	_ = f.SetColWidth(sheetName, "K", "K", 45)
	return nil
}

func (s *xlsxSink) Write(v domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("write to closed xlsx sink")
	}

	cells := Row(v)
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	values[0] = v.Candidate.Row

	axis, err := excelize.CoordinatesToCellName(1, s.nextRow)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(sheetName, axis, &values); err != nil {
		return fmt.Errorf("write row %d: %w", v.Candidate.Row, err)
	}
	if v.Flag {
		lastCol, _ := excelize.ColumnNumberToName(len(Header))
		end := fmt.Sprintf("%s%d", lastCol, s.nextRow)
		if err := s.file.SetCellStyle(sheetName, axis, end, s.flaggedStyle); err != nil {
			return fmt.Errorf("highlight row %d: %w", v.Candidate.Row, err)
		}
	}
	s.nextRow++
	return nil
}

func (s *xlsxSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := errors.Join(s.file.SaveAs(s.path), s.file.Close(), releaseLock(s.lock))
	if err != nil {
		return fmt.Errorf("save xlsx output: %w", err)
	}
	return nil
}
