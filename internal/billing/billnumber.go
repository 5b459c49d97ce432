package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxBillNumberAttempts = 5

// billNumber is B + local timestamp to the second. Retries after a unique-key
// conflict append a short random suffix.
func billNumber(now time.Time, attempt int) string {
	base := "B" + now.Format("20060102150405")
	if attempt == 0 {
		return base
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return base + "-" + suffix
}
