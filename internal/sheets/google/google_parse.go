package google

import (
	"fmt"
	"strconv"
	"strings"

	"smetka/internal/core"
)

// parsePayers converts a values matrix (as returned by the Sheets API) into
// payers. The first row is treated as a header when its EIK cell is not a
// valid EIK. Invalid and duplicate rows are counted and dropped.
func parsePayers(values [][]interface{}) ([]core.Payer, int) {
	var (
		out     []core.Payer
		skipped int
		seen    = map[string]bool{}
	)
	for i, raw := range values {
		row := toStrings(raw)
		p := core.Payer{
			Name:      safeGet(row, 0),
			EIK:       safeGet(row, 1),
			NAPOffice: safeGet(row, 2),
		}
		if p.Name == "" && p.EIK == "" {
			continue
		}
		if err := p.Validate(); err != nil {
			if i > 0 {
				skipped++
			}
			continue
		}
		if seen[p.EIK] {
			skipped++
			continue
		}
		seen[p.EIK] = true
		out = append(out, p)
	}
	return out, skipped
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			// Unformatted numeric cells lose leading zeros but keep all digits.
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
