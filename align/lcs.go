package align

// Pair links an index in the old sequence to an index in the new one.
type Pair struct {
	Old int
	New int
}

// LCS returns the index pairs of a longest common subsequence of a and b,
// in increasing order. Ties prefer the earliest old match.
func LCS(a, b []string) []Pair {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	// table[i][j] = LCS length of a[i:] and b[j:]
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	pairs := make([]Pair, 0, table[0][0])
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			pairs = append(pairs, Pair{Old: i, New: j})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}
