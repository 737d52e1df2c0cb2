package measure

import "fmt"

// FormatQuantity renders a quantity for labels and CLI output
func FormatQuantity(q float64, unit Unit) string {
	switch unit {
	case UnitEach:
		return fmt.Sprintf("%.0f %s", q, unit)
	case UnitPixels, UnitSquarePixels:
		return fmt.Sprintf("%.1f %s", q, unit)
	}
	return fmt.Sprintf("%.2f %s", q, unit)
}

// String formats a result as "<type>: <quantity>"
func (r Result) String() string {
	s := fmt.Sprintf("%s: %s", r.Type, FormatQuantity(r.Quantity, r.Unit))
	if !r.Calibrated {
		s += " (uncalibrated)"
	}
	return s
}
