package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/logging"
	"AffiliationChecker/internal/ports"
)

const (
	headerFirstName   = "first name"
	headerLastName    = "last name"
	headerInstitution = "current institution"
)

// External id columns accepted in the header, in order of preference.
var idHeaders = []string{"openalex_id", "openalex id", "external id", "external_id"}

// Reader loads candidates from a CSV or XLSX roster. Row numbers follow the
// spreadsheet, so the first data row is row 2.
type Reader struct {
	path   string
	logger *slog.Logger
}

var _ ports.CandidateSource = (*Reader)(nil)

// NewReader picks the format from the file extension.
func NewReader(path string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reader{path: path, logger: logger}
}

// ReadCandidates returns every data row, including rows with missing names;
// validation is left to the caller so such rows still produce an output line.
func (r *Reader) ReadCandidates(ctx context.Context) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(r.path)); ext {
	case ".csv":
		rows, err = readCSV(r.path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r.path)
	default:
		return nil, fmt.Errorf("%w: unsupported roster format %q", domain.ErrMalformedInput, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: roster %s has no header row", domain.ErrMalformedInput, r.path)
	}

	cols, err := locateColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", r.path, err)
	}

	candidates := make([]domain.Candidate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Row:                i + 2,
			FirstName:          cell(row, cols.first),
			LastName:           cell(row, cols.last),
			ExternalID:         cell(row, cols.id),
			CurrentInstitution: cell(row, cols.institution),
		})
	}

	r.logger.Info("roster loaded", "path", r.path, "candidates", len(candidates))
	return candidates, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read roster: %v", domain.ErrMalformedInput, err)
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", domain.ErrMalformedInput, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

type columns struct {
	first, last, id, institution int
}

func locateColumns(header []string) (columns, error) {
	cols := columns{first: -1, last: -1, id: -1, institution: -1}
	idRank := len(idHeaders)
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case headerFirstName:
			cols.first = i
		case headerLastName:
			cols.last = i
		case headerInstitution:
			cols.institution = i
		default:
			for rank, h := range idHeaders {
				if name == h && rank < idRank {
					cols.id, idRank = i, rank
				}
			}
		}
	}

	var missing []string
	if cols.first < 0 {
		missing = append(missing, "First Name")
	}
	if cols.last < 0 {
		missing = append(missing, "Last Name")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: missing column %s", domain.ErrMalformedInput, strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
