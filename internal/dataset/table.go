// Package dataset loads raw transaction tables from CSV, SQLite, or
// PostgreSQL sources, validates them, and converts them to typed records.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

// Table is a raw tabular dataset: a header plus string cells, exactly as
// read from the source. Validation and type conversion happen on top of it.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the index of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// amountColumn returns the index of the amount column, accepting both the
// plain and the INR-suffixed header.
func (t *Table) amountColumn() int {
	if i := t.ColumnIndex("amount"); i >= 0 {
		return i
	}
	return t.ColumnIndex("amount (INR)")
}

// labelColumn returns the index of the fraud label column, accepting both
// fraud_flag and is_fraud headers.
func (t *Table) labelColumn() int {
	if i := t.ColumnIndex("fraud_flag"); i >= 0 {
		return i
	}
	return t.ColumnIndex("is_fraud")
}

// columnAliases maps record fields to accepted header spellings, first match
// wins.
var columnAliases = map[string][]string{
	"type":               {"transaction type", "transaction_type"},
	"merchant_category":  {"merchant_category"},
	"transaction_status": {"transaction_status"},
	"sender_age_group":   {"sender_age_group"},
	"receiver_age_group": {"receiver_age_group"},
	"sender_state":       {"sender_state"},
	"sender_bank":        {"sender_bank"},
	"receiver_bank":      {"receiver_bank"},
	"device_type":        {"device_type"},
	"network_type":       {"network_type"},
	"hour_of_day":        {"hour_of_day"},
	"day_of_week":        {"day_of_week"},
	"timestamp":          {"timestamp"},
}

func (t *Table) aliasColumn(field string) int {
	for _, name := range columnAliases[field] {
		if i := t.ColumnIndex(name); i >= 0 {
			return i
		}
	}
	return -1
}

// ToTransactions converts the table into typed records. Validate should run
// first; conversion reports its own errors for malformed cells it cannot
// represent.
func (t *Table) ToTransactions() ([]domain.Transaction, error) {
	amountIdx := t.amountColumn()
	if amountIdx < 0 {
		return nil, fmt.Errorf("table has no amount column")
	}
	labelIdx := t.labelColumn()

	idx := make(map[string]int, len(columnAliases))
	for field := range columnAliases {
		idx[field] = t.aliasColumn(field)
	}

	records := make([]domain.Transaction, 0, len(t.Rows))
	for rowNum, row := range t.Rows {
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[amountIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: amount: %w", rowNum+1, err)
		}

		rec := domain.Transaction{
			Amount:           amount,
			Type:             cell(row, idx["type"]),
			MerchantCategory: cell(row, idx["merchant_category"]),
			Status:           cell(row, idx["transaction_status"]),
			SenderAgeGroup:   cell(row, idx["sender_age_group"]),
			ReceiverAgeGroup: cell(row, idx["receiver_age_group"]),
			SenderState:      cell(row, idx["sender_state"]),
			SenderBank:       cell(row, idx["sender_bank"]),
			ReceiverBank:     cell(row, idx["receiver_bank"]),
			DeviceType:       cell(row, idx["device_type"]),
			NetworkType:      cell(row, idx["network_type"]),
			DayOfWeek:        cell(row, idx["day_of_week"]),
			HourOfDay:        -1,
			FraudFlag:        -1,
		}

		if hourStr := cell(row, idx["hour_of_day"]); hourStr != "" {
			hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
			if err != nil {
				return nil, fmt.Errorf("row %d: hour_of_day: %w", rowNum+1, err)
			}
			// Negative would read as "derive from timestamp" downstream,
			// so reject it here like any other malformed cell
			if hour < 0 {
				return nil, fmt.Errorf("row %d: hour_of_day: negative value %d", rowNum+1, hour)
			}
			rec.HourOfDay = hour
		}

		if tsStr := cell(row, idx["timestamp"]); tsStr != "" {
			ts, err := parseTimestamp(tsStr)
			if err != nil {
				return nil, fmt.Errorf("row %d: timestamp: %w", rowNum+1, err)
			}
			rec.Timestamp = ts
		}

		if labelIdx >= 0 {
			label, err := strconv.Atoi(strings.TrimSpace(row[labelIdx]))
			if err != nil {
				return nil, fmt.Errorf("row %d: fraud label: %w", rowNum+1, err)
			}
			rec.FraudFlag = label
		}

		records = append(records, rec)
	}

	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
