package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/usecase"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderSummary(s usecase.Summary, targets []string) string {
	names := make([]string, len(targets))
	for i, code := range targets {
		names[i] = fmt.Sprintf("%s (%s)", domain.CountryName(code), code)
	}

	pct := func(n int) string { return fmt.Sprintf("%.1f%%", s.Percent(n)) }
	totals := renderTable(
		[]string{"Outcome", "Count", "Share"},
		[][]string{
			{"Screened", strconv.Itoa(s.Screened), ""},
			{"Clean", strconv.Itoa(s.Clean), pct(s.Clean)},
			{"Flagged", strconv.Itoa(len(s.Flagged)), pct(len(s.Flagged))},
			{"  Direct", strconv.Itoa(s.Direct), pct(s.Direct)},
			{"  Indirect (co-author)", strconv.Itoa(s.Indirect), pct(s.Indirect)},
			{"Skipped", strconv.Itoa(s.Skipped), pct(s.Skipped)},
			{"Already screened", strconv.Itoa(s.Resumed), ""},
		},
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d candidates, target countries %s\n", s.RunID, s.Total, strings.Join(names, ", "))
	b.WriteString(totals)
	b.WriteString("\n")

	if len(s.Flagged) > 0 {
		rows := make([][]string, 0, len(s.Flagged))
		for _, v := range s.Flagged {
			rows = append(rows, []string{strconv.Itoa(v.Candidate.Row), v.Candidate.FullName(), v.Type.String(), v.EvidenceText()})
		}
		b.WriteString("\nFlagged candidates\n")
		b.WriteString(renderTable([]string{"Row", "Name", "Type", "Evidence"}, rows, []columnAlignment{alignRight}))
		b.WriteString("\n" + domain.ReviewNotice + "\n")
	}
	return b.String()
}
