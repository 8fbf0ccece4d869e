package ml

import (
	"math/rand/v2"
	"sort"
)

const leaf = -1

// Node is one decision node. Leaves have Feature == -1 and carry Value: the
// class distribution for classifiers, a single mean for regressors.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree stores nodes flat; the root is Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leafFor(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one CART tree over a bootstrap sample.
type treeBuilder struct {
	x           [][]float64
	classes     []int     // class index per row, classifier only
	targets     []float64 // regressor only
	weights     []float64 // per row
	nClasses    int
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand

	nodes       []Node
	importances []float64
}

func (b *treeBuilder) classifier() bool {
	return b.nClasses > 0
}

func (b *treeBuilder) build(rows []int) Tree {
	b.importances = make([]float64, len(b.x[0]))
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf})

	total, impurity := b.impurity(rows)
	stop := impurity <= 1e-12 ||
		len(rows) < 2*b.minLeaf ||
		(b.maxDepth > 0 && depth >= b.maxDepth)
	if !stop {
		if s, ok := b.bestSplit(rows, total, impurity); ok {
			b.importances[s.feature] += s.gain
			left, right := partition(b.x, rows, s.feature, s.threshold)
			l := b.grow(left, depth+1)
			r := b.grow(right, depth+1)
			b.nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: l, Right: r}
			return id
		}
	}
	b.nodes[id].Value = b.leafValue(rows)
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) bestSplit(rows []int, total, parent float64) (split, bool) {
	best := split{feature: -1}
	nFeatures := len(b.x[0])
	candidates := b.rng.Perm(nFeatures)[:b.maxFeatures]

	order := make([]int, len(rows))
	for _, f := range candidates {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})

		acc := b.newAccumulator(order)
		for i := 0; i < len(order)-1; i++ {
			acc.move(order[i])
			nLeft := i + 1
			if nLeft < b.minLeaf || len(order)-nLeft < b.minLeaf {
				continue
			}
			lo, hi := b.x[order[i]][f], b.x[order[i+1]][f]
			if hi <= lo {
				continue
			}
			gain := parent*total - acc.weightedChildImpurity()
			if gain > best.gain+1e-12 {
				best = split{feature: f, threshold: lo + (hi-lo)/2, gain: gain}
			}
		}
	}
	return best, best.feature >= 0
}

func partition(x [][]float64, rows []int, feature int, threshold float64) (left, right []int) {
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

// impurity returns the total weight of rows and their gini or variance.
func (b *treeBuilder) impurity(rows []int) (float64, float64) {
	if b.classifier() {
		counts := make([]float64, b.nClasses)
		var total float64
		for _, r := range rows {
			counts[b.classes[r]] += b.weights[r]
			total += b.weights[r]
		}
		return total, gini(counts, total)
	}
	var total, sum, sumSq float64
	for _, r := range rows {
		w := b.weights[r]
		total += w
		sum += w * b.targets[r]
		sumSq += w * b.targets[r] * b.targets[r]
	}
	return total, variance(total, sum, sumSq)
}

func (b *treeBuilder) leafValue(rows []int) []float64 {
	if b.classifier() {
		dist := make([]float64, b.nClasses)
		var total float64
		for _, r := range rows {
			dist[b.classes[r]] += b.weights[r]
			total += b.weights[r]
		}
		if total > 0 {
			for i := range dist {
				dist[i] /= total
			}
		}
		return dist
	}
	var total, sum float64
	for _, r := range rows {
		total += b.weights[r]
		sum += b.weights[r] * b.targets[r]
	}
	if total == 0 {
		return []float64{0}
	}
	return []float64{sum / total}
}

// accumulator sweeps rows from the right child into the left one.
type accumulator struct {
	b *treeBuilder

	leftCounts, rightCounts []float64
	leftW, rightW           float64
	leftSum, rightSum       float64
	leftSq, rightSq         float64
}

func (b *treeBuilder) newAccumulator(rows []int) *accumulator {
	a := &accumulator{b: b}
	if b.classifier() {
		a.leftCounts = make([]float64, b.nClasses)
		a.rightCounts = make([]float64, b.nClasses)
	}
	for _, r := range rows {
		w := b.weights[r]
		a.rightW += w
		if b.classifier() {
			a.rightCounts[b.classes[r]] += w
		} else {
			a.rightSum += w * b.targets[r]
			a.rightSq += w * b.targets[r] * b.targets[r]
		}
	}
	return a
}

func (a *accumulator) move(r int) {
	w := a.b.weights[r]
	a.leftW += w
	a.rightW -= w
	if a.b.classifier() {
		c := a.b.classes[r]
		a.leftCounts[c] += w
		a.rightCounts[c] -= w
		return
	}
	y := a.b.targets[r]
	a.leftSum += w * y
	a.rightSum -= w * y
	a.leftSq += w * y * y
	a.rightSq -= w * y * y
}

func (a *accumulator) weightedChildImpurity() float64 {
	if a.b.classifier() {
		return a.leftW*gini(a.leftCounts, a.leftW) + a.rightW*gini(a.rightCounts, a.rightW)
	}
	return a.leftW*variance(a.leftW, a.leftSum, a.leftSq) + a.rightW*variance(a.rightW, a.rightSum, a.rightSq)
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func variance(total, sum, sumSq float64) float64 {
	if total <= 0 {
		return 0
	}
	mean := sum / total
	v := sumSq/total - mean*mean
	if v < 0 {
		return 0
	}
	return v
}
