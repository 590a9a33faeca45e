package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Column headers that identify a feedback column, in priority order.
var feedbackColumns = []string{
	"review", "feedback", "text", "comment", "description", "content", "message",
}

// extractFeedbackColumn pulls feedback texts out of a CSV upload. The
// feedback column is the first header containing one of the known names,
// case-insensitive. Without a recognizable header, the first sufficiently
// long cell of each row is taken instead.
func extractFeedbackColumn(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("invalid file encoding, please use UTF-8")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV parsing error: %v", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no valid feedback found in CSV. Ensure it has a column like 'review', 'feedback', or 'text'")
	}

	header := records[0]
	rows := records[1:]

	columnIdx := -1
	for _, name := range feedbackColumns {
		for i, key := range header {
			if strings.Contains(strings.ToLower(key), name) {
				columnIdx = i
				break
			}
		}
		if columnIdx >= 0 {
			break
		}
	}

	var reviews []string
	if columnIdx >= 0 {
		for _, row := range rows {
			if columnIdx >= len(row) {
				continue
			}
			text := strings.TrimSpace(row[columnIdx])
			if len(text) > 10 {
				reviews = append(reviews, text)
			}
		}
	}

	// No named column or it produced nothing: grab the first long cell of
	// each row.
	if len(reviews) == 0 {
		for _, row := range rows {
			for _, cell := range row {
				if len(cell) > 20 {
					reviews = append(reviews, strings.TrimSpace(cell))
					break
				}
			}
		}
	}

	if len(reviews) == 0 {
		return nil, fmt.Errorf("no valid feedback found in CSV. Ensure it has a column like 'review', 'feedback', or 'text'")
	}
	return reviews, nil
}
