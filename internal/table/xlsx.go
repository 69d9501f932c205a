package table

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

const sheetName = "Sheet1"

var numericColumns = map[string]bool{ColMaxMarks: true, ColMarks: true}

func xlsxRecords(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	recs, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheets[0], path, err)
	}
	return recs, nil
}

func readXLSX(path string) ([]model.Row, error) {
	recs, err := xlsxRecords(path)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(path, recs)
}

// writeXLSX writes records to the first sheet with a bold header. Mark
// columns are stored as numbers.
func writeXLSX(path string, recs [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	var header []string
	for i, rec := range recs {
		if i == 0 {
			header = rec
		}
		vals := make([]any, len(rec))
		for j, c := range rec {
			vals[j] = c
			if i > 0 && j < len(header) && numericColumns[header[j]] {
				if v, err := strconv.ParseFloat(c, 64); err == nil {
					vals[j] = v
				}
			}
		}
		start, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, start, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(recs) > 0 {
		if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		for j, h := range header {
			col, err := excelize.ColumnNumberToName(j + 1)
			if err != nil {
				return err
			}
			width := 50.0
			if numericColumns[h] || h == ColQuestionID || h == ColTopic {
				width = 14
			}
			if err := f.SetColWidth(sheetName, col, col, width); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
