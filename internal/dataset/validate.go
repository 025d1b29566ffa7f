package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports malformed or out-of-domain input data. Validation
// failures are never silently coerced.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "data validation failed: " + e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a raw transaction table before any transformation runs.
// Checks run in order and short-circuit on the first failure:
//
//  1. required columns present
//  2. no missing values in required columns
//  3. amount is numeric
//  4. amounts are non-negative
//  5. label values are binary (when requireLabel)
//
// Pure check: on success the table is returned to the caller unchanged.
func Validate(t *Table, requireLabel bool) error {
	amountIdx := t.amountColumn()
	labelIdx := t.labelColumn()

	var missing []string
	if amountIdx < 0 {
		missing = append(missing, "amount")
	}
	if requireLabel && labelIdx < 0 {
		missing = append(missing, "is_fraud")
	}
	if len(missing) > 0 {
		return validationErrorf("Missing required columns: %s", strings.Join(missing, ", "))
	}

	required := []int{amountIdx}
	if requireLabel {
		required = append(required, labelIdx)
	}
	for rowNum, row := range t.Rows {
		for _, idx := range required {
			if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
				return validationErrorf("Missing values detected in column %q at row %d", t.Columns[idx], rowNum+1)
			}
		}
	}

	amounts := make([]float64, len(t.Rows))
	for rowNum, row := range t.Rows {
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[amountIdx]), 64)
		if err != nil {
			return validationErrorf("amount must be numeric: row %d has %q", rowNum+1, row[amountIdx])
		}
		amounts[rowNum] = amount
	}
	for rowNum, amount := range amounts {
		if amount < 0 {
			return validationErrorf("Negative transaction amount detected at row %d: %v", rowNum+1, amount)
		}
	}

	if requireLabel {
		for rowNum, row := range t.Rows {
			label := strings.TrimSpace(row[labelIdx])
			if label != "0" && label != "1" {
				return validationErrorf("is_fraud must be binary: row %d has %q", rowNum+1, label)
			}
		}
	}

	return nil
}
