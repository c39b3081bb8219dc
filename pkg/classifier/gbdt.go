package classifier

import (
	"math"
	"sort"
)

// GBDTConfig holds the fixed training hyperparameters.
type GBDTConfig struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
}

// DefaultGBDTConfig mirrors the baseline model settings.
func DefaultGBDTConfig() GBDTConfig {
	return GBDTConfig{Trees: 50, MaxDepth: 3, LearningRate: 0.1}
}

// treeNode is one node of a regression stump. Feature -1 marks a leaf.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func (t *treeNode) eval(x [5]float64) float64 {
	for t.Feature >= 0 {
		if x[t.Feature] <= t.Threshold {
			t = t.Left
		} else {
			t = t.Right
		}
	}
	return t.Value
}

// Model is a gradient-boosted ensemble of shallow regression trees
// with a logistic link, predicting P(ensemble strategy).
type Model struct {
	Trees        []*treeNode `json:"trees"`
	LearningRate float64     `json:"learning_rate"`
	Base         float64     `json:"base"`
}

// PredictProba returns the probability that the ensemble strategy is
// the right choice for the given feature values.
func (m *Model) PredictProba(x [5]float64) float64 {
	raw := m.Base
	for _, t := range m.Trees {
		raw += m.LearningRate * t.eval(x)
	}
	return sigmoid(raw)
}

// PredictStrategy implements StrategyPredictor: the predicted class
// with its own class probability as confidence.
func (m *Model) PredictStrategy(x [5]float64) Decision {
	p := m.PredictProba(x)
	if p > 0.5 {
		return Decision{StrategyEnsemble, p}
	}
	return Decision{StrategyFast, 1.0 - p}
}

// FeatureImportances reports the normalized share of splits taken on
// each feature across the ensemble.
func (m *Model) FeatureImportances() [5]float64 {
	var counts [5]float64
	var total float64
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		if n == nil || n.Feature < 0 {
			return
		}
		counts[n.Feature]++
		total++
		walk(n.Left)
		walk(n.Right)
	}
	for _, t := range m.Trees {
		walk(t)
	}
	if total > 0 {
		for i := range counts {
			counts[i] /= total
		}
	}
	return counts
}

// TrainGBDT fits a binary logistic gradient-boosted tree ensemble.
// Labels are 0 (fast) and 1 (ensemble). Training is fully
// deterministic: greedy splits scan features in order and thresholds
// ascending, so identical inputs produce identical models.
func TrainGBDT(features [][5]float64, labels []int, cfg GBDTConfig) *Model {
	n := len(features)
	if n == 0 {
		return &Model{LearningRate: cfg.LearningRate}
	}

	pos := 0
	for _, y := range labels {
		if y == 1 {
			pos++
		}
	}
	p := clampProbability(float64(pos) / float64(n))
	base := math.Log(p / (1 - p))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = base
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	idx := make([]int, n)

	trees := make([]*treeNode, 0, cfg.Trees)
	for t := 0; t < cfg.Trees; t++ {
		for i := 0; i < n; i++ {
			pi := sigmoid(raw[i])
			grad[i] = float64(labels[i]) - pi
			hess[i] = pi * (1 - pi)
			idx[i] = i
		}

		root := buildTree(features, grad, hess, idx, cfg.MaxDepth)
		trees = append(trees, root)

		for i := 0; i < n; i++ {
			raw[i] += cfg.LearningRate * root.eval(features[i])
		}
	}

	return &Model{Trees: trees, LearningRate: cfg.LearningRate, Base: base}
}

func buildTree(features [][5]float64, grad, hess []float64, idx []int, depth int) *treeNode {
	if depth <= 0 || len(idx) < 2 {
		return newLeaf(grad, hess, idx)
	}

	feat, threshold, ok := bestSplit(features, grad, idx)
	if !ok {
		return newLeaf(grad, hess, idx)
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feat] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Feature:   feat,
		Threshold: threshold,
		Left:      buildTree(features, grad, hess, left, depth-1),
		Right:     buildTree(features, grad, hess, right, depth-1),
	}
}

// newLeaf takes the standard logistic boosting step: sum of residuals
// over sum of hessians.
func newLeaf(grad, hess []float64, idx []int) *treeNode {
	var g, h float64
	for _, i := range idx {
		g += grad[i]
		h += hess[i]
	}
	value := 0.0
	if h > 1e-12 {
		value = g / h
	}
	return &treeNode{Feature: -1, Value: value}
}

// bestSplit finds the (feature, threshold) pair maximizing residual
// variance reduction. Returns ok=false when no split separates the
// samples.
func bestSplit(features [][5]float64, grad []float64, idx []int) (int, float64, bool) {
	n := len(idx)

	var parentSum float64
	for _, i := range idx {
		parentSum += grad[i]
	}
	parentScore := parentSum * parentSum / float64(n)

	bestScore := parentScore + 1e-12
	bestFeat := -1
	var bestThreshold float64

	type sample struct {
		value float64
		grad  float64
	}
	samples := make([]sample, n)

	for feat := 0; feat < 5; feat++ {
		for j, i := range idx {
			samples[j] = sample{features[i][feat], grad[i]}
		}
		sort.Slice(samples, func(a, b int) bool { return samples[a].value < samples[b].value })

		var leftSum float64
		for j := 0; j < n-1; j++ {
			leftSum += samples[j].grad
			if samples[j].value == samples[j+1].value {
				continue
			}
			rightSum := parentSum - leftSum
			nl, nr := float64(j+1), float64(n-j-1)
			score := leftSum*leftSum/nl + rightSum*rightSum/nr
			if score > bestScore {
				bestScore = score
				bestFeat = feat
				bestThreshold = (samples[j].value + samples[j+1].value) / 2
			}
		}
	}

	if bestFeat < 0 {
		return 0, 0, false
	}
	return bestFeat, bestThreshold, true
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clampProbability(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
