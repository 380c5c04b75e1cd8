package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"AffiliationChecker/internal/domain"
)

const countryColumns = 4

func newCountriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "countries",
		Short:       "List the country codes with known display names",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderCountryTable())
			return nil
		},
	}
}

func renderCountryTable() string {
	codes := make([]string, 0, len(domain.CountryNames))
	for code := range domain.CountryNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	headers := make([]string, countryColumns)
	for i := range headers {
		headers[i] = "Code  Country"
	}

	var rows [][]string
	for start := 0; start < len(codes); start += countryColumns {
		row := make([]string, 0, countryColumns)
		for _, code := range codes[start:min(start+countryColumns, len(codes))] {
			row = append(row, fmt.Sprintf("%s  %s", code, domain.CountryName(code)))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, nil)
}

// promptCountries asks for target codes; an empty answer keeps defaults.
func promptCountries(in io.Reader, out io.Writer, defaults []string) ([]string, error) {
	fmt.Fprintln(out, renderCountryTable())
	fmt.Fprintf(out, "Target countries [%s]: ", strings.Join(defaults, " "))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read country selection: %w", err)
	}
	codes := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' })
	if len(codes) == 0 {
		return defaults, nil
	}

	selected := make([]string, 0, len(codes))
	for _, code := range codes {
		code = domain.NormalizeCountryCode(code)
		if !domain.IsAlpha2(code) {
			return nil, fmt.Errorf("%w: %q is not an ISO 3166-1 alpha-2 code", domain.ErrInvalidConfig, code)
		}
		selected = append(selected, code)
	}
	names := make([]string, len(selected))
	for i, code := range selected {
		names[i] = domain.CountryName(code)
	}
	fmt.Fprintf(out, "Screening for: %s\n", strings.Join(names, ", "))
	return selected, nil
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
