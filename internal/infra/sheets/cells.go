package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// cellString renders an unformatted cell value the way the store reads it.
// Numbers come back from the API as float64.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func rowStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cellString(c)
	}
	return out
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// columnLetter converts a zero-based column index to its A1 letters.
func columnLetter(index int) string {
	var b strings.Builder
	n := index + 1
	var rev []byte
	for n > 0 {
		n--
		rev = append(rev, byte('A'+n%26))
		n /= 26
	}
	for i := len(rev) - 1; i >= 0; i-- {
		b.WriteByte(rev[i])
	}
	return b.String()
}

// rowRange is the A1 range covering width cells of one grid row.
func rowRange(index, width int) string {
	n := strconv.Itoa(index + 1)
	return "A" + n + ":" + columnLetter(width-1) + n
}
