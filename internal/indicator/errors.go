package indicator

import "fmt"

// InsufficientDataError is returned when a series is shorter than an
// indicator's documented minimum length.
type InsufficientDataError struct {
	Indicator string
	Need      int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need %d bars, got %d", e.Indicator, e.Need, e.Got)
}

// CalculationError reports a numeric edge case that could not be guarded
// with an epsilon (degenerate series, no swing, etc.).
type CalculationError struct {
	Op  string
	Msg string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}
