package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"AffiliationChecker/internal/domain"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Data.csv")
	raw := "\ufeffFirst Name,Last Name,OpenAlex_ID,Current Institution\n" +
		"Wei,Jiang,A5023888391,Stanford University\n" +
		",,,\n" +
		"Ann,,,\n" +
		"Ali, Rezaei ,,Sharif University of Technology\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	got, err := NewReader(path, nil).ReadCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.Candidate{
		Row: 2, FirstName: "Wei", LastName: "Jiang",
		ExternalID: "A5023888391", CurrentInstitution: "Stanford University",
	}, got[0])
	assert.Equal(t, 4, got[1].Row)
	assert.ErrorIs(t, got[1].Validate(), domain.ErrMalformedInput, "rows with missing names are kept for the output")
	assert.Equal(t, "Rezaei", got[2].LastName)
	assert.Empty(t, got[2].ExternalID)
}

func TestReadXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Data.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Current Institution", "last name", "FIRST NAME", "External ID"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"Technion", "Cohen", "Dana", "A42"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := NewReader(path, nil).ReadCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Candidate{
		Row: 2, FirstName: "Dana", LastName: "Cohen",
		ExternalID: "A42", CurrentInstitution: "Technion",
	}, got[0])
}

func TestReadRejectsBadRoster(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	noNames := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(noNames, []byte("Name,Institution\nWei Jiang,MIT\n"), 0o600))
	_, err := NewReader(noNames, nil).ReadCandidates(context.Background())
	require.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), "First Name, Last Name")

	_, err = NewReader(filepath.Join(dir, "roster.json"), nil).ReadCandidates(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = NewReader(filepath.Join(dir, "absent.csv"), nil).ReadCandidates(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
