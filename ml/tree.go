package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// TreeNode is a node of a fitted CART tree. Fields are exported so the tree
// can be gob-encoded as part of a model artifact.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x <= Threshold goes left
	Left      *TreeNode
	Right     *TreeNode

	N      int
	Probas []float64 // aligned with the owning tree's Classes
}

// DecisionTree is a fitted classification tree.
type DecisionTree struct {
	Root    *TreeNode
	Classes []int
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	criterion       string
}

type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

type valueIndex struct {
	v float64
	i int
}

// fitTree grows a tree on the rows of X selected by idx. Rows may repeat in
// idx (bootstrap samples).
func fitTree(X *mat.Dense, y []int, idx []int, classes []int, p treeParams, rnd *rand.Rand) (*DecisionTree, error) {
	if len(idx) == 0 {
		return nil, errors.New("tree: empty sample")
	}
	classPos := make(map[int]int, len(classes))
	for i, c := range classes {
		classPos[c] = i
	}
	b := &treeBuilder{X: X, y: y, classPos: classPos, nClasses: len(classes), params: p, rnd: rnd}
	return &DecisionTree{Root: b.build(idx, 0), Classes: append([]int(nil), classes...)}, nil
}

type treeBuilder struct {
	X        *mat.Dense
	y        []int
	classPos map[int]int
	nClasses int
	params   treeParams
	rnd      *rand.Rand
}

func (b *treeBuilder) counts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, ii := range idx {
		counts[b.classPos[b.y[ii]]]++
	}
	return counts
}

func (b *treeBuilder) impurity(counts []int) float64 {
	if b.params.criterion == "entropy" {
		return entropyFromCounts(counts)
	}
	return giniFromCounts(counts)
}

func (b *treeBuilder) leaf(idx []int, counts []int) *TreeNode {
	return &TreeNode{Leaf: true, N: len(idx), Probas: countsToProbas(counts)}
}

func (b *treeBuilder) build(idx []int, depth int) *TreeNode {
	counts := b.counts(idx)
	if isPure(counts) || len(idx) < b.params.minSamplesSplit {
		return b.leaf(idx, counts)
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return b.leaf(idx, counts)
	}

	_, nFeatures := b.X.Dims()
	features := make([]int, nFeatures)
	for j := range features {
		features[j] = j
	}
	if b.params.maxFeatures > 0 && b.params.maxFeatures < nFeatures {
		b.rnd.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:b.params.maxFeatures]
		sort.Ints(features)
	}

	parent := b.impurity(counts)

	// Search features in parallel; each goroutine owns one slot so the pick
	// below does not depend on scheduling.
	results := make([]splitResult, len(features))
	var wg sync.WaitGroup
	for k, f := range features {
		wg.Add(1)
		go func(k, f int) {
			defer wg.Done()
			results[k] = b.bestSplit(idx, f, parent)
		}(k, f)
	}
	wg.Wait()

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= 0 {
		return b.leaf(idx, counts)
	}

	return &TreeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		N:         len(idx),
		Probas:    countsToProbas(counts),
		Left:      b.build(best.leftIdx, depth+1),
		Right:     b.build(best.rightIdx, depth+1),
	}
}

func (b *treeBuilder) bestSplit(idx []int, f int, parent float64) splitResult {
	result := splitResult{feature: -1}

	values := make([]valueIndex, len(idx))
	for k, ii := range idx {
		values[k] = valueIndex{v: b.X.At(ii, f), i: ii}
	}
	sort.SliceStable(values, func(a, c int) bool { return values[a].v < values[c].v })

	n := float64(len(values))
	left := make([]int, b.nClasses)
	right := b.counts(idx)
	for s := 1; s < len(values); s++ {
		moved := b.classPos[b.y[values[s-1].i]]
		left[moved]++
		right[moved]--

		if values[s].v == values[s-1].v {
			continue
		}
		if s < b.params.minSamplesLeaf || len(values)-s < b.params.minSamplesLeaf {
			continue
		}
		weighted := float64(s)/n*b.impurity(left) + float64(len(values)-s)/n*b.impurity(right)
		gain := parent - weighted
		if gain > result.gain {
			result.gain = gain
			result.feature = f
			result.threshold = (values[s-1].v + values[s].v) / 2
			result.leftIdx = indicesOf(values[:s])
			result.rightIdx = indicesOf(values[s:])
		}
	}
	return result
}

// Predict returns the class of one feature row.
func (t *DecisionTree) Predict(x []float64) int {
	probas := t.predictProba(x)
	return t.Classes[argmaxFloat(probas)]
}

func (t *DecisionTree) predictProba(x []float64) []float64 {
	node := t.Root
	for node != nil && !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	if node == nil {
		p := make([]float64, len(t.Classes))
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return p
	}
	return node.Probas
}

// check verifies every leaf carries one proba per class and every split
// reads a feature in [0, numFeatures).
func (t *DecisionTree) check(numFeatures int) error {
	if len(t.Classes) == 0 {
		return errors.New("no classes")
	}
	var walk func(n *TreeNode, depth int) error
	walk = func(n *TreeNode, depth int) error {
		if n == nil {
			return nil
		}
		if n.Leaf {
			if len(n.Probas) != len(t.Classes) {
				return fmt.Errorf("leaf at depth %d has %d probas for %d classes", depth, len(n.Probas), len(t.Classes))
			}
			return nil
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("split at depth %d reads feature %d of %d", depth, n.Feature, numFeatures)
		}
		if err := walk(n.Left, depth+1); err != nil {
			return err
		}
		return walk(n.Right, depth+1)
	}
	return walk(t.Root, 0)
}

func indicesOf(values []valueIndex) []int {
	out := make([]int, len(values))
	for k, v := range values {
		out[k] = v.i
	}
	return out
}

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := float64(c) / n
		res -= p * p
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i, c := range counts {
		p[i] = float64(c) / float64(n)
	}
	return p
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}
