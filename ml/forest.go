package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// RandomForest is the estimator; Fit produces a RandomForestModel.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Criterion       string
	Bootstrap       bool
	RandomState     int64
}

type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.NEstimators = n }
}
func WithMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForest) { rf.Bootstrap = b }
}
func WithRandomState(s int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = s }
}
func WithCriterion(c string) RandomForestOption {
	return func(rf *RandomForest) { rf.Criterion = c }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     20,
		MaxDepth:        5,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains NEstimators trees concurrently. Tree i is seeded with
// RandomState+i, so a fixed RandomState gives a reproducible model.
func (rf *RandomForest) Fit(X *mat.Dense, y []int) (*RandomForestModel, error) {
	if X == nil {
		return nil, errors.New("randomforest: nil X")
	}
	n, nFeatures := X.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("%w: X has %d rows, y has %d", ErrLengthMismatch, n, len(y))
	}
	if rf.NEstimators <= 0 {
		return nil, errors.New("randomforest: n_estimators must be positive")
	}

	classes := uniqueSorted(y)
	params := treeParams{
		maxDepth:        rf.MaxDepth,
		minSamplesSplit: rf.MinSamplesSplit,
		minSamplesLeaf:  rf.MinSamplesLeaf,
		maxFeatures:     rf.MaxFeatures,
		criterion:       rf.Criterion,
	}

	trees := make([]*DecisionTree, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	var wg sync.WaitGroup
	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(rf.RandomState + int64(i)))
			idx := make([]int, n)
			for j := range idx {
				if rf.Bootstrap {
					idx[j] = rnd.Intn(n)
				} else {
					idx[j] = j
				}
			}
			trees[i], errs[i] = fitTree(X, y, idx, classes, params, rnd)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &RandomForestModel{Trees: trees, NumFeatures: nFeatures, Classes: classes}, nil
}

// RandomForestModel is a fitted forest. It is never mutated after Fit or
// load, so one instance can serve concurrent requests.
type RandomForestModel struct {
	Trees       []*DecisionTree
	NumFeatures int
	Classes     []int
}

func (m *RandomForestModel) validate() error {
	if m == nil || len(m.Trees) == 0 {
		return ErrModelNotLoaded
	}
	if m.NumFeatures <= 0 || len(m.Classes) == 0 {
		return fmt.Errorf("%w: features=%d classes=%d", ErrInvalidModelArtifact, m.NumFeatures, len(m.Classes))
	}
	for i, t := range m.Trees {
		if t == nil || t.Root == nil {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModelArtifact, i)
		}
		if err := t.check(m.NumFeatures); err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrInvalidModelArtifact, i, err)
		}
	}
	return nil
}

// Predict returns the majority vote of all trees for every row of X. Ties
// go to the smallest class label.
func (m *RandomForestModel) Predict(X *mat.Dense) ([]int, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureMismatch, cols, m.NumFeatures)
	}

	votes := make([][]int, len(m.Trees))
	var wg sync.WaitGroup
	for t, tree := range m.Trees {
		wg.Add(1)
		go func(t int, tree *DecisionTree) {
			defer wg.Done()
			preds := make([]int, rows)
			for i := 0; i < rows; i++ {
				preds[i] = tree.Predict(X.RawRowView(i))
			}
			votes[t] = preds
		}(t, tree)
	}
	wg.Wait()

	out := make([]int, rows)
	counts := make(map[int]int, len(m.Classes))
	for i := 0; i < rows; i++ {
		for k := range counts {
			delete(counts, k)
		}
		for t := range votes {
			counts[votes[t][i]]++
		}
		best, bestCount := 0, -1
		for _, cls := range m.Classes {
			if c := counts[cls]; c > bestCount || (c == bestCount && cls < best) {
				best, bestCount = cls, c
			}
		}
		out[i] = best
	}
	return out, nil
}

// Transform reads featuresCol and attaches predictionCol.
func (m *RandomForestModel) Transform(f *Frame, featuresCol, predictionCol string) (*Frame, error) {
	features, err := f.Vector(featuresCol)
	if err != nil {
		return nil, err
	}
	preds, err := m.Predict(features)
	if err != nil {
		return nil, err
	}
	col := make([]float64, len(preds))
	for i, p := range preds {
		col[i] = float64(p)
	}
	return f.WithColumn(predictionCol, col)
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{}, 2)
	out := make([]int, 0, 2)
	for _, v := range y {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
