package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Tabular data is textualized row by row: the header row is kept as-is and
// every following row becomes "column=value" pairs. Downstream consumers
// are a search index and a language model, not a renderer.

// extractXlsx textualizes every sheet of a workbook.
func extractXlsx(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	var sections []string
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		section := fmt.Sprintf("Sheet: %s\n%s", sheet, textualizeRows(rows))
		sections = append(sections, section)
	}

	return strings.Join(sections, "\n\n"), nil
}

// extractCSV textualizes delimited tabular text.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse csv: %w", err)
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return "", nil
	}

	return textualizeRows(rows), nil
}

// textualizeRows renders a header line followed by column=value lines.
func textualizeRows(rows [][]string) string {
	header := rows[0]

	var sb strings.Builder
	sb.WriteString(strings.Join(header, " | "))

	for _, row := range rows[1:] {
		pairs := make([]string, 0, len(row))
		for i, value := range row {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			name := fmt.Sprintf("col%d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			pairs = append(pairs, fmt.Sprintf("%s=%s", name, value))
		}
		if len(pairs) == 0 {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(pairs, ", "))
	}

	return sb.String()
}
