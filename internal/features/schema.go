package features

// The engineered feature schema. Column order here is the contract the
// fitted preprocessor depends on: the numeric block first, then the
// categorical block, each in declaration order. Training and inference both
// go through Engineer, so this is the single source of truth for both.

// NumericColumns is the ordered numeric block of the engineered schema.
var NumericColumns = []string{
	"amount_log",
	"hour_sin",
	"hour_cos",
	"day_of_week_sin",
	"day_of_week_cos",
	"year",
	"month",
	"day",
	"minute",
}

// CategoricalColumns is the ordered categorical block of the engineered schema.
var CategoricalColumns = []string{
	"transaction_type",
	"merchant_category",
	"transaction_status",
	"sender_age_group",
	"receiver_age_group",
	"sender_state",
	"sender_bank",
	"receiver_bank",
	"device_type",
	"network_type",
	"is_weekend",
}

// Frame is a fixed-schema feature table produced by Engineer. Rows are
// parallel across the numeric and categorical blocks.
type Frame struct {
	NumericCols     []string
	CategoricalCols []string

	// Numeric[i] has one value per NumericCols entry.
	Numeric [][]float64

	// Categorical[i] has one value per CategoricalCols entry.
	Categorical [][]string
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int {
	return len(f.Numeric)
}

// Select returns a new frame containing the given rows in the given order.
// Row slices are shared with the receiver, not copied.
func (f *Frame) Select(indices []int) *Frame {
	out := &Frame{
		NumericCols:     f.NumericCols,
		CategoricalCols: f.CategoricalCols,
		Numeric:         make([][]float64, len(indices)),
		Categorical:     make([][]string, len(indices)),
	}
	for i, idx := range indices {
		out.Numeric[i] = f.Numeric[idx]
		out.Categorical[i] = f.Categorical[idx]
	}
	return out
}

// Columns returns the full ordered column list: numeric block then
// categorical block.
func (f *Frame) Columns() []string {
	cols := make([]string, 0, len(f.NumericCols)+len(f.CategoricalCols))
	cols = append(cols, f.NumericCols...)
	cols = append(cols, f.CategoricalCols...)
	return cols
}
