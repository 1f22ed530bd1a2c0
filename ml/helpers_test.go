package ml

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const wineHeader = "fixed_acidity;volatile_acidity;citric_acid;residual_sugar;chlorides;free_sulfur_dioxide;total_sulfur_dioxide;density;pH;sulphates;alcohol;quality\n"

// separableForest returns a forest that predicts 1 exactly when alcohol is
// above 11.25; every other feature is constant in the training data.
func separableForest(t *testing.T) *RandomForestModel {
	t.Helper()

	alcohol := []float64{9.0, 9.4, 10.0, 12.5, 13.0}
	labels := []int{0, 0, 0, 1, 1}
	data := make([]float64, 0, len(alcohol)*11)
	for _, a := range alcohol {
		data = append(data, 7.4, 0.7, 0.0, 1.9, 0.076, 11, 34, 0.9978, 3.51, 0.56, a)
	}
	X := mat.NewDense(len(alcohol), 11, data)

	model, err := NewRandomForest(
		WithNEstimators(5),
		WithBootstrap(false),
		WithRandomState(42),
	).Fit(X, labels)
	require.NoError(t, err)
	return model
}
