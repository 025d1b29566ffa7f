// Package features maps raw UPI transaction records onto the fixed
// engineered feature schema consumed by the preprocessor.
package features

import (
	"fmt"
	"math"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

// dayOfWeekIndex maps day names, full and abbreviated, onto the integer
// domain 0-6 with Monday=0. Any string outside this table is an error, never
// a silent NaN.
var dayOfWeekIndex = map[string]int{
	"Monday":    0,
	"Tuesday":   1,
	"Wednesday": 2,
	"Thursday":  3,
	"Friday":    4,
	"Saturday":  5,
	"Sunday":    6,
	"Mon":       0,
	"Tue":       1,
	"Wed":       2,
	"Thu":       3,
	"Fri":       4,
	"Sat":       5,
	"Sun":       6,
}

// Engineer derives the fixed-schema feature frame from raw transaction
// records. It is a pure function: one row or many, the output for a given
// record is identical.
func Engineer(records []domain.Transaction) (*Frame, error) {
	frame := &Frame{
		NumericCols:     NumericColumns,
		CategoricalCols: CategoricalColumns,
		Numeric:         make([][]float64, 0, len(records)),
		Categorical:     make([][]string, 0, len(records)),
	}

	for i := range records {
		num, cat, err := engineerRow(&records[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		frame.Numeric = append(frame.Numeric, num)
		frame.Categorical = append(frame.Categorical, cat)
	}

	return frame, nil
}

// EngineerOne derives the feature frame for a single record.
func EngineerOne(record domain.Transaction) (*Frame, error) {
	return Engineer([]domain.Transaction{record})
}

func engineerRow(t *domain.Transaction) ([]float64, []string, error) {
	hour, err := resolveHour(t)
	if err != nil {
		return nil, nil, err
	}

	dow, err := resolveDayOfWeek(t)
	if err != nil {
		return nil, nil, err
	}

	// log1p is stable for small amounts and maps amount=0 to exactly 0.
	amountLog := math.Log1p(t.Amount)

	hourSin := math.Sin(2 * math.Pi * float64(hour) / 24)
	hourCos := math.Cos(2 * math.Pi * float64(hour) / 24)
	dowSin := math.Sin(2 * math.Pi * float64(dow) / 7)
	dowCos := math.Cos(2 * math.Pi * float64(dow) / 7)

	ts := t.Timestamp
	num := []float64{
		amountLog,
		hourSin,
		hourCos,
		dowSin,
		dowCos,
		float64(ts.Year()),
		float64(int(ts.Month())),
		float64(ts.Day()),
		float64(ts.Minute()),
	}

	isWeekend := "No"
	if dow >= 5 {
		isWeekend = "Yes"
	}

	cat := []string{
		t.Type,
		t.MerchantCategory,
		t.Status,
		t.SenderAgeGroup,
		t.ReceiverAgeGroup,
		t.SenderState,
		t.SenderBank,
		t.ReceiverBank,
		t.DeviceType,
		t.NetworkType,
		isWeekend,
	}

	return num, cat, nil
}

// resolveHour picks the canonical hour source: the pre-computed hour_of_day
// column when the record carries one, otherwise the timestamp hour. The same
// resolution runs at training and inference time.
func resolveHour(t *domain.Transaction) (int, error) {
	if t.HourOfDay >= 0 {
		if t.HourOfDay > 23 {
			return 0, fmt.Errorf("hour_of_day out of range: %d", t.HourOfDay)
		}
		return t.HourOfDay, nil
	}
	return t.Timestamp.Hour(), nil
}

// resolveDayOfWeek maps the raw day name column when present, deriving from
// the timestamp otherwise. Unmapped names are a hard error.
func resolveDayOfWeek(t *domain.Transaction) (int, error) {
	if t.DayOfWeek != "" {
		idx, ok := dayOfWeekIndex[t.DayOfWeek]
		if !ok {
			return 0, fmt.Errorf("unmapped day_of_week value %q", t.DayOfWeek)
		}
		return idx, nil
	}
	return mondayIndexed(t.Timestamp.Weekday()), nil
}

// mondayIndexed converts Go's Sunday=0 weekday to the Monday=0 domain used
// by the cyclic encoding.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}
