package scan

import (
	"fmt"
)

// preciseSize formats a byte count using the largest binary unit that
// divides it exactly, e.g. "4MB" for 4194304 and "1000B" for 1000.
func preciseSize(b int64) string {
	units := []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}
	i := 0
	for b != 0 && b%1024 == 0 && i < len(units)-1 {
		b /= 1024
		i++
	}
	return fmt.Sprintf("%d%s", b, units[i])
}
