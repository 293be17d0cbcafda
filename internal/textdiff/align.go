package textdiff

import "slices"

// Align returns a minimal edit script turning a into b.
//
// The table dp[i][j] holds the LCS length of a[:i] and b[:j]. The backtrack
// walks from (m, n) to (0, 0); when dropping from b and dropping from a score
// the same, it emits an insertion. Because ops are collected back to front,
// a replaced run therefore reads as deletions followed by insertions in the
// returned forward order.
//
// Time and memory are O(len(a)*len(b)); callers bound input size before
// calling (see compare.Options.MaxTokens).
func Align(a, b Tokens) Result {
	m, n := len(a), len(b)
	w := n + 1
	dp := make([]int, (m+1)*w)

	for i := 1; i <= m; i++ {
		row, prev := i*w, (i-1)*w
		for j := 1; j <= n; j++ {
			if a[i-1].Text == b[j-1].Text {
				dp[row+j] = dp[prev+j-1] + 1
			} else {
				dp[row+j] = max(dp[prev+j], dp[row+j-1])
			}
		}
	}

	ops := make(Result, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1].Text == b[j-1].Text:
			ops = append(ops, SameOp(i-1, j-1))
			i--
			j--
		case j > 0 && (i == 0 || dp[i*w+j-1] >= dp[(i-1)*w+j]):
			ops = append(ops, InsertOp(j-1))
			j--
		default:
			ops = append(ops, DeleteOp(i-1))
			i--
		}
	}
	slices.Reverse(ops)

	return ops
}

// LCSLength returns the length of a longest common subsequence of a and b
// using two rolling rows.
func LCSLength(a, b Tokens) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1].Text == b[j-1].Text {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
