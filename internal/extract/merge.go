package extract

// HungryMerge merges rows column by column, keeping for each column the
// last non-empty value. Later rows win over earlier ones, and any value
// wins over an empty string. The result is as long as the shortest row.
//
//	HungryMerge([]string{"a", "1"}, []string{"", "2"}) // ["a", "2"]
func HungryMerge(rows ...[]string) []string {
	if len(rows) == 0 {
		return []string{}
	}

	width := len(rows[0])
	for _, r := range rows[1:] {
		width = min(width, len(r))
	}

	merged := make([]string, width)
	for i := range merged {
		for j := len(rows) - 1; j >= 0; j-- {
			if rows[j][i] != "" {
				merged[i] = rows[j][i]
				break
			}
		}
	}
	return merged
}
