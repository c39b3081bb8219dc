package correct

// osaDistance is the optimal string alignment distance: insertions,
// deletions, substitutions and adjacent transpositions each cost one.
// Returns -1 when the distance exceeds max.
func osaDistance(a, b []rune, max int) int {
	la, lb := len(a), len(b)
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff > max {
		return -1
	}
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev2 := make([]int, lb+1)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			best := prev[j-1] + cost
			if del := prev[j] + 1; del < best {
				best = del
			}
			if ins := curr[j-1] + 1; ins < best {
				best = ins
			}
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if tr := prev2[j-2] + 1; tr < best {
					best = tr
				}
			}
			curr[j] = best
		}
		prev2, prev, curr = prev, curr, prev2
	}

	if prev[lb] > max {
		return -1
	}
	return prev[lb]
}
