package bundle

import (
	"time"

	"github.com/agentstation/xtsmerge/pkg/errors"
)

const patchLayout = "2006-01-02"

// patchMonth converts a security patch level such as "2024-03-05" into a
// month ordinal. Only the calendar month matters: a patch from the first
// and one from the last day of a month are equivalent.
func patchMonth(level string) (int, error) {
	t, err := time.Parse(patchLayout, level)
	if err != nil {
		return 0, errors.NewParseError("security patch", "", "expected YYYY-MM-DD, got "+level, err)
	}
	return t.Year()*12 + int(t.Month()) - 1, nil
}
