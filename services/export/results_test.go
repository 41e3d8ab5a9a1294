package exportsvc

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
)

func fPtr(f float64) *float64 { return &f }

func TestResultsXLSX(t *testing.T) {
	// 30 runes, multibyte from position 2 on; byte-truncation at 28 would
	// split a rune and corrupt the cell
	longName := "Ak" + strings.Repeat("é", 28)

	rows := []evaluation.ReportRow{
		{RegNo: "VU-BIT-0001", Name: longName, Industry100: fPtr(80), Academic100: fPtr(100), Average100: fPtr(90)},
		{RegNo: "VU-BIT-0002", Name: "Plain Student"},
	}

	buf, filename, err := ResultsXLSX("Dr Akello", rows)
	if err != nil {
		t.Fatalf("ResultsXLSX() failed: %v", err)
	}
	if filename != "Dr Akello.xlsx" {
		t.Errorf("filename = %q; want %q", filename, "Dr Akello.xlsx")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}

	cell := func(ref string) string {
		v, err := f.GetCellValue(resultsSheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s) failed: %v", ref, err)
		}
		return v
	}

	if got := cell("A1"); got != "Reg No" {
		t.Errorf("A1 = %q; want %q", got, "Reg No")
	}

	name := cell("B2")
	if !utf8.ValidString(name) {
		t.Errorf("B2 is not valid UTF-8: %q", name)
	}
	if n := utf8.RuneCountInString(name); n != maxNameLen {
		t.Errorf("B2 rune count = %d; want %d", n, maxNameLen)
	}
	if !strings.HasPrefix(longName, name) {
		t.Errorf("B2 = %q is not a prefix of the student name", name)
	}

	if got := cell("C2"); got != "80" {
		t.Errorf("C2 = %q; want %q", got, "80")
	}
	if got := cell("E2"); got != "90" {
		t.Errorf("E2 = %q; want %q", got, "90")
	}

	// missing scores render as "-"
	for _, ref := range []string{"C3", "D3", "E3"} {
		if got := cell(ref); got != "-" {
			t.Errorf("%s = %q; want %q", ref, got, "-")
		}
	}
}
