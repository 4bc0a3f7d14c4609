package waterbody

import (
	"fmt"
	"math"
)

// FormatDistance renders a meter value as a short display string: whole
// meters below 1000 ("750m"), one-decimal kilometers at or above ("1.0km").
// Callers guarantee non-negative finite input.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}
