package repositories

import (
	"strconv"

	"github.com/lib/pq"
)

func itoa(n int) string { return strconv.Itoa(n) }

// limitClause renders "LIMIT n" or nothing when n <= 0.
func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(n)
}

func pqStringArray(v []string) any { return pq.Array(v) }
