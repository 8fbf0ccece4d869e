package ml

import (
	"math"
	"math/rand/v2"
	"sort"
)

// TrainTestSplit shuffles row indices 0..n-1 with seed and holds out
// ceil(testSize*n) of them. When stratify is non-nil each label keeps its
// share in both parts.
func TrainTestSplit(n int, testSize float64, seed int64, stratify []string) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eed))

	if stratify == nil {
		perm := rng.Perm(n)
		nTest := holdout(n, testSize)
		test = append(test, perm[:nTest]...)
		train = append(train, perm[nTest:]...)
		return train, test
	}

	groups := make(map[string][]int)
	for i := 0; i < n; i++ {
		groups[stratify[i]] = append(groups[stratify[i]], i)
	}
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		rows := groups[label]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := int(math.Round(float64(len(rows)) * testSize))
		if len(rows) >= 2 {
			nTest = max(1, min(nTest, len(rows)-1))
		} else {
			nTest = 0
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test
}

func holdout(n int, testSize float64) int {
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return nTest
}

// ChronologicalSplit keeps the first trainFrac of already ordered rows for
// training and the rest for testing.
func ChronologicalSplit(n int, trainFrac float64) (train, test []int) {
	cut := int(float64(n) * trainFrac)
	for i := 0; i < n; i++ {
		if i < cut {
			train = append(train, i)
		} else {
			test = append(test, i)
		}
	}
	return train, test
}

// CanStratify reports whether every label occurs at least twice.
func CanStratify(labels []string) bool {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	for _, c := range counts {
		if c < 2 {
			return false
		}
	}
	return len(counts) > 0
}

// Select gathers rows of x by index.
func Select[T any](x []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}
