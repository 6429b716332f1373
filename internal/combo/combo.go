// Package combo enumerates k-element subsets.
package combo

// Choose returns every k-element subset of items in lexicographic order of
// item positions. Each subset is a fresh slice. k == 0 yields one empty
// subset; k > len(items) or k < 0 yields none.
func Choose[T any](items []T, k int) [][]T {
	n := len(items)
	if k < 0 || k > n {
		return nil
	}

	out := make([][]T, 0, Count(n, k))
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		subset := make([]T, k)
		for i, j := range idx {
			subset[i] = items[j]
		}
		out = append(out, subset)

		// Find the rightmost index that can still move right.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Count returns the binomial coefficient C(n, k).
func Count(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return c
}
