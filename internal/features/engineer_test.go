package features

import (
	"math"
	"testing"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

func sampleTransaction() domain.Transaction {
	return domain.Transaction{
		Amount:           2500,
		Type:             "P2P",
		MerchantCategory: "Grocery",
		Status:           "SUCCESS",
		SenderAgeGroup:   "26-35",
		ReceiverAgeGroup: "26-35",
		SenderState:      "Karnataka",
		SenderBank:       "HDFC",
		ReceiverBank:     "SBI",
		DeviceType:       "Android",
		NetworkType:      "4G",
		Timestamp:        time.Date(2025, 3, 14, 10, 42, 0, 0, time.UTC),
		HourOfDay:        -1,
		FraudFlag:        0,
	}
}

func TestEngineer(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		tx := sampleTransaction()

		f1, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		f2, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}

		for i := range f1.Numeric[0] {
			if f1.Numeric[0][i] != f2.Numeric[0][i] {
				t.Errorf("numeric column %d differs between runs: %v vs %v", i, f1.Numeric[0][i], f2.Numeric[0][i])
			}
		}
		for i := range f1.Categorical[0] {
			if f1.Categorical[0][i] != f2.Categorical[0][i] {
				t.Errorf("categorical column %d differs between runs", i)
			}
		}
	})

	t.Run("AmountLogZero", func(t *testing.T) {
		tx := sampleTransaction()
		tx.Amount = 0

		f, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		if f.Numeric[0][0] != 0 {
			t.Errorf("expected amount_log 0 for amount 0, got %v", f.Numeric[0][0])
		}
	})

	t.Run("AmountLogMonotonic", func(t *testing.T) {
		prev := -1.0
		for _, amount := range []float64{0, 1, 100, 2500, 200001, 1e7} {
			tx := sampleTransaction()
			tx.Amount = amount
			f, err := EngineerOne(tx)
			if err != nil {
				t.Fatalf("EngineerOne failed for amount %v: %v", amount, err)
			}
			if f.Numeric[0][0] <= prev {
				t.Errorf("amount_log not monotonic at amount %v", amount)
			}
			prev = f.Numeric[0][0]
		}
	})

	t.Run("CyclicIdentity", func(t *testing.T) {
		// sin^2 + cos^2 must stay on the unit circle for every hour and day
		for hour := 0; hour < 24; hour++ {
			tx := sampleTransaction()
			tx.HourOfDay = hour
			f, err := EngineerOne(tx)
			if err != nil {
				t.Fatalf("EngineerOne failed for hour %d: %v", hour, err)
			}
			sum := f.Numeric[0][1]*f.Numeric[0][1] + f.Numeric[0][2]*f.Numeric[0][2]
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("hour %d: sin^2+cos^2 = %v", hour, sum)
			}
		}

		days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
		for _, day := range days {
			tx := sampleTransaction()
			tx.DayOfWeek = day
			f, err := EngineerOne(tx)
			if err != nil {
				t.Fatalf("EngineerOne failed for %s: %v", day, err)
			}
			sum := f.Numeric[0][3]*f.Numeric[0][3] + f.Numeric[0][4]*f.Numeric[0][4]
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("%s: sin^2+cos^2 = %v", day, sum)
			}
		}
	})

	t.Run("DayNameAbbreviations", func(t *testing.T) {
		full := sampleTransaction()
		full.DayOfWeek = "Saturday"
		abbrev := sampleTransaction()
		abbrev.DayOfWeek = "Sat"

		ff, err := EngineerOne(full)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		fa, err := EngineerOne(abbrev)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}

		if ff.Numeric[0][3] != fa.Numeric[0][3] || ff.Numeric[0][4] != fa.Numeric[0][4] {
			t.Error("full and abbreviated day names produced different encodings")
		}
	})

	t.Run("UnmappedDayName", func(t *testing.T) {
		tx := sampleTransaction()
		tx.DayOfWeek = "Funday"

		_, err := EngineerOne(tx)
		if err == nil {
			t.Fatal("expected error for unmapped day name")
		}
	})

	t.Run("WeekendFlag", func(t *testing.T) {
		cases := []struct {
			day  string
			want string
		}{
			{"Friday", "No"},
			{"Saturday", "Yes"},
			{"Sunday", "Yes"},
			{"Monday", "No"},
		}
		for _, tc := range cases {
			tx := sampleTransaction()
			tx.DayOfWeek = tc.day
			f, err := EngineerOne(tx)
			if err != nil {
				t.Fatalf("EngineerOne failed for %s: %v", tc.day, err)
			}
			got := f.Categorical[0][len(f.Categorical[0])-1]
			if got != tc.want {
				t.Errorf("%s: is_weekend = %q, want %q", tc.day, got, tc.want)
			}
		}
	})

	t.Run("HourOverrideWins", func(t *testing.T) {
		tx := sampleTransaction()
		tx.HourOfDay = 3 // timestamp says 10

		f, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		want := math.Sin(2 * math.Pi * 3 / 24)
		if math.Abs(f.Numeric[0][1]-want) > 1e-12 {
			t.Errorf("hour_sin = %v, want %v (override hour 3)", f.Numeric[0][1], want)
		}
	})

	t.Run("HourOutOfRange", func(t *testing.T) {
		tx := sampleTransaction()
		tx.HourOfDay = 24

		if _, err := EngineerOne(tx); err == nil {
			t.Fatal("expected error for hour 24")
		}
	})

	t.Run("WeekdayDerivedFromTimestamp", func(t *testing.T) {
		// 2025-03-14 is a Friday; Monday-indexed domain puts it at 4
		tx := sampleTransaction()
		f, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		want := math.Sin(2 * math.Pi * 4 / 7)
		if math.Abs(f.Numeric[0][3]-want) > 1e-12 {
			t.Errorf("day_of_week_sin = %v, want %v", f.Numeric[0][3], want)
		}
		if f.Categorical[0][len(f.Categorical[0])-1] != "No" {
			t.Error("Friday should not be a weekend")
		}
	})

	t.Run("CalendarColumns", func(t *testing.T) {
		tx := sampleTransaction()
		f, err := EngineerOne(tx)
		if err != nil {
			t.Fatalf("EngineerOne failed: %v", err)
		}
		num := f.Numeric[0]
		if num[5] != 2025 || num[6] != 3 || num[7] != 14 || num[8] != 42 {
			t.Errorf("calendar columns = %v %v %v %v, want 2025 3 14 42", num[5], num[6], num[7], num[8])
		}
	})

	t.Run("SchemaShape", func(t *testing.T) {
		txs := []domain.Transaction{sampleTransaction(), sampleTransaction()}
		f, err := Engineer(txs)
		if err != nil {
			t.Fatalf("Engineer failed: %v", err)
		}
		if f.Rows() != 2 {
			t.Errorf("Rows() = %d, want 2", f.Rows())
		}
		if len(f.Numeric[0]) != len(NumericColumns) {
			t.Errorf("numeric width %d, want %d", len(f.Numeric[0]), len(NumericColumns))
		}
		if len(f.Categorical[0]) != len(CategoricalColumns) {
			t.Errorf("categorical width %d, want %d", len(f.Categorical[0]), len(CategoricalColumns))
		}
	})
}
