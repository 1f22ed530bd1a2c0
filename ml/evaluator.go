package ml

import (
	"fmt"
	"sort"
	"strings"
)

// F1 averaging strategies.
const (
	// AverageWeighted weights each class F1 by its share of true labels.
	AverageWeighted = "weighted"
	// AverageMacro is the unweighted mean over every class seen in labels
	// or predictions.
	AverageMacro = "macro"
	// AverageBinary is the F1 of the positive class (1) only.
	AverageBinary = "binary"
)

// NormalizeAverage maps user input to one of the averaging constants.
// Empty input selects AverageWeighted.
func NormalizeAverage(average string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(average)) {
	case "", AverageWeighted:
		return AverageWeighted, nil
	case AverageMacro:
		return AverageMacro, nil
	case AverageBinary:
		return AverageBinary, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAverage, average)
	}
}

// MulticlassEvaluator computes an F1 score from two frame columns.
type MulticlassEvaluator struct {
	LabelCol      string
	PredictionCol string
	Average       string
}

func (e MulticlassEvaluator) Evaluate(f *Frame) (float64, error) {
	labels, err := f.Column(e.LabelCol)
	if err != nil {
		return 0, err
	}
	preds, err := f.Column(e.PredictionCol)
	if err != nil {
		return 0, err
	}
	return F1Score(labels, preds, e.Average)
}

// F1Score compares predictions with labels using the given averaging.
func F1Score(labels, preds []float64, average string) (float64, error) {
	if len(labels) != len(preds) {
		return 0, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(labels), len(preds))
	}
	if len(labels) == 0 {
		return 0, ErrEmptyDataset
	}
	avg, err := NormalizeAverage(average)
	if err != nil {
		return 0, err
	}

	cm := newConfusion(labels, preds)
	switch avg {
	case AverageBinary:
		return cm.f1(1), nil
	case AverageMacro:
		classes := cm.classes()
		sum := 0.0
		for _, c := range classes {
			sum += cm.f1(c)
		}
		return sum / float64(len(classes)), nil
	default:
		n := float64(len(labels))
		sum := 0.0
		for _, c := range cm.classes() {
			sum += float64(cm.support[c]) / n * cm.f1(c)
		}
		return sum, nil
	}
}

type confusion struct {
	tp, fp, fn map[float64]int
	support    map[float64]int
	seen       map[float64]struct{}
}

func newConfusion(labels, preds []float64) *confusion {
	cm := &confusion{
		tp:      map[float64]int{},
		fp:      map[float64]int{},
		fn:      map[float64]int{},
		support: map[float64]int{},
		seen:    map[float64]struct{}{},
	}
	for i, l := range labels {
		p := preds[i]
		cm.support[l]++
		cm.seen[l] = struct{}{}
		cm.seen[p] = struct{}{}
		if l == p {
			cm.tp[l]++
			continue
		}
		cm.fp[p]++
		cm.fn[l]++
	}
	return cm
}

func (cm *confusion) classes() []float64 {
	out := make([]float64, 0, len(cm.seen))
	for c := range cm.seen {
		out = append(out, c)
	}
	sort.Float64s(out)
	return out
}

// f1 of one class; 0 when precision and recall are both 0.
func (cm *confusion) f1(class float64) float64 {
	tp := float64(cm.tp[class])
	var prec, rec float64
	if d := tp + float64(cm.fp[class]); d > 0 {
		prec = tp / d
	}
	if d := tp + float64(cm.fn[class]); d > 0 {
		rec = tp / d
	}
	if prec+rec == 0 {
		return 0
	}
	return 2 * prec * rec / (prec + rec)
}
