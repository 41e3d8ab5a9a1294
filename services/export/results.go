package exportsvc

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
)

const (
	resultsSheet = "Results"
	maxNameLen   = 28
)

// ResultsXLSX renders report rows as a spreadsheet and returns its content
// along with a suggested filename. Missing scores show as "-"; present scores
// are rounded to whole marks.
func ResultsXLSX(title string, rows []evaluation.ReportRow) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), resultsSheet)

	_ = f.SetColWidth(resultsSheet, "A", "A", 16)
	_ = f.SetColWidth(resultsSheet, "B", "B", 30)
	_ = f.SetColWidth(resultsSheet, "C", "E", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	headers := []string{"Reg No", "Student", "Ind/100", "Acad/100", "Avg/100"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s1", colName(i))
		_ = f.SetCellValue(resultsSheet, cell, h)
		_ = f.SetCellStyle(resultsSheet, cell, cell, headerStyle)
	}

	for i, r := range rows {
		row := i + 2
		name := r.Name
		if runes := []rune(name); len(runes) > maxNameLen {
			name = string(runes[:maxNameLen])
		}
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("A%d", row), r.RegNo)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("B%d", row), name)
		setScore(f, fmt.Sprintf("C%d", row), r.Industry100)
		setScore(f, fmt.Sprintf("D%d", row), r.Academic100)
		setScore(f, fmt.Sprintf("E%d", row), r.Average100)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", errors.Wrap(err, "writing workbook")
	}
	return buf, fmt.Sprintf("%s.xlsx", title), nil
}

func setScore(f *excelize.File, cell string, score *float64) {
	if score == nil {
		_ = f.SetCellValue(resultsSheet, cell, "-")
		return
	}
	_ = f.SetCellValue(resultsSheet, cell, int(math.Round(*score)))
}

func colName(i int) string {
	return string(rune('A' + i))
}
