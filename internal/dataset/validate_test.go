package dataset

import (
	"strings"
	"testing"
)

func validTable() *Table {
	return &Table{
		Columns: []string{"amount (INR)", "transaction type", "network_type", "hour_of_day", "day_of_week", "fraud_flag"},
		Rows: [][]string{
			{"2500", "P2P", "4G", "14", "Monday", "0"},
			{"300000", "P2M", "Public WiFi", "2", "Saturday", "1"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("ValidPasses", func(t *testing.T) {
		if err := Validate(validTable(), true); err != nil {
			t.Fatalf("valid table rejected: %v", err)
		}
	})

	t.Run("MissingAmountColumn", func(t *testing.T) {
		tab := validTable()
		tab.Columns[0] = "value"
		err := Validate(tab, true)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "Missing required columns") {
			t.Errorf("error = %q, want missing-columns reason", err)
		}
	})

	t.Run("MissingLabelColumn", func(t *testing.T) {
		tab := validTable()
		tab.Columns[5] = "note"
		if err := Validate(tab, true); err == nil || !strings.Contains(err.Error(), "Missing required columns") {
			t.Errorf("error = %v, want missing-columns reason", err)
		}

		// Label is optional for inference input
		if err := Validate(tab, false); err != nil {
			t.Errorf("label-free table rejected for inference: %v", err)
		}
	})

	t.Run("MissingValues", func(t *testing.T) {
		tab := validTable()
		tab.Rows[1][0] = "  "
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "Missing values detected") {
			t.Errorf("error = %v, want missing-values reason", err)
		}
	})

	t.Run("NonNumericAmount", func(t *testing.T) {
		tab := validTable()
		tab.Rows[0][0] = "abc"
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "amount must be numeric") {
			t.Errorf("error = %v, want numeric-amount reason", err)
		}
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		tab := validTable()
		tab.Rows[0][0] = "-5"
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "Negative transaction amount detected") {
			t.Errorf("error = %v, want negative-amount reason", err)
		}
	})

	t.Run("NumericCheckBeforeNegativeCheck", func(t *testing.T) {
		// Negative amount in an early row, non-numeric amount later: the
		// whole column must parse before negatives are reported
		tab := validTable()
		tab.Rows[0][0] = "-5"
		tab.Rows[1][0] = "abc"
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "amount must be numeric") {
			t.Errorf("error = %v, want numeric-amount reason first", err)
		}
	})

	t.Run("NonBinaryLabel", func(t *testing.T) {
		tab := validTable()
		tab.Rows[0][5] = "2"
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "is_fraud must be binary") {
			t.Errorf("error = %v, want binary-label reason", err)
		}
	})

	t.Run("ChecksShortCircuitInOrder", func(t *testing.T) {
		// Both a missing value and a bad label: the missing value wins
		tab := validTable()
		tab.Rows[0][0] = ""
		tab.Rows[1][5] = "7"
		err := Validate(tab, true)
		if err == nil || !strings.Contains(err.Error(), "Missing values detected") {
			t.Errorf("error = %v, want missing-values reason first", err)
		}
	})
}

func TestToTransactions(t *testing.T) {
	t.Run("MapsColumns", func(t *testing.T) {
		txs, err := validTable().ToTransactions()
		if err != nil {
			t.Fatalf("ToTransactions failed: %v", err)
		}
		if len(txs) != 2 {
			t.Fatalf("got %d records, want 2", len(txs))
		}

		first := txs[0]
		if first.Amount != 2500 || first.Type != "P2P" || first.NetworkType != "4G" {
			t.Errorf("first record mapped wrong: %+v", first)
		}
		if first.HourOfDay != 14 || first.DayOfWeek != "Monday" || first.FraudFlag != 0 {
			t.Errorf("first record derived columns wrong: %+v", first)
		}
		if txs[1].FraudFlag != 1 {
			t.Errorf("second record label = %d, want 1", txs[1].FraudFlag)
		}
	})

	t.Run("UnlabeledDefaults", func(t *testing.T) {
		tab := &Table{
			Columns: []string{"amount"},
			Rows:    [][]string{{"100"}},
		}
		txs, err := tab.ToTransactions()
		if err != nil {
			t.Fatalf("ToTransactions failed: %v", err)
		}
		if txs[0].FraudFlag != -1 {
			t.Errorf("FraudFlag = %d, want -1 for unlabeled", txs[0].FraudFlag)
		}
		if txs[0].HourOfDay != -1 {
			t.Errorf("HourOfDay = %d, want -1 when column absent", txs[0].HourOfDay)
		}
	})

	t.Run("RejectsNegativeHour", func(t *testing.T) {
		// A negative cell must not slip through as the derive-from-timestamp
		// sentinel
		tab := validTable()
		tab.Rows[0][3] = "-3"
		if _, err := tab.ToTransactions(); err == nil || !strings.Contains(err.Error(), "hour_of_day") {
			t.Errorf("error = %v, want hour_of_day rejection", err)
		}
	})

	t.Run("ParsesTimestamps", func(t *testing.T) {
		tab := &Table{
			Columns: []string{"amount", "timestamp"},
			Rows:    [][]string{{"100", "2025-03-14 10:42:00"}},
		}
		txs, err := tab.ToTransactions()
		if err != nil {
			t.Fatalf("ToTransactions failed: %v", err)
		}
		if txs[0].Timestamp.Hour() != 10 || txs[0].Timestamp.Minute() != 42 {
			t.Errorf("timestamp parsed wrong: %v", txs[0].Timestamp)
		}
	})
}

func TestReadCSV(t *testing.T) {
	t.Run("HeaderAndRows", func(t *testing.T) {
		data := "amount, transaction type \n100,P2P\n200,P2M\n"
		tab, err := ReadCSV(strings.NewReader(data))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if tab.Columns[0] != "amount" || tab.Columns[1] != "transaction type" {
			t.Errorf("header not trimmed: %v", tab.Columns)
		}
		if len(tab.Rows) != 2 {
			t.Errorf("got %d rows, want 2", len(tab.Rows))
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if _, err := ReadCSV(strings.NewReader("")); err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}
