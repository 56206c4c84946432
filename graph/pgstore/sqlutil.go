package pgstore

import "strconv"

func itoa(n int) string { return strconv.Itoa(n) }

func joinAnd(conditions []string) string {
	out := conditions[0]
	for _, c := range conditions[1:] {
		out += " AND " + c
	}
	return out
}
