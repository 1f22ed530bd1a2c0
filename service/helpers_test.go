package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"wine_inference/ml"
)

const wineHeader = "fixed_acidity;volatile_acidity;citric_acid;residual_sugar;chlorides;free_sulfur_dioxide;total_sulfur_dioxide;density;pH;sulphates;alcohol;quality\n"

// testForest predicts 1 exactly when alcohol is above 11.25.
func testForest(t *testing.T) *ml.RandomForestModel {
	t.Helper()

	alcohol := []float64{9.0, 9.4, 10.0, 12.5, 13.0}
	labels := []int{0, 0, 0, 1, 1}
	data := make([]float64, 0, len(alcohol)*11)
	for _, a := range alcohol {
		data = append(data, 7.4, 0.7, 0.0, 1.9, 0.076, 11, 34, 0.9978, 3.51, 0.56, a)
	}

	model, err := ml.NewRandomForest(
		ml.WithNEstimators(5),
		ml.WithBootstrap(false),
		ml.WithRandomState(42),
	).Fit(mat.NewDense(len(alcohol), 11, data), labels)
	require.NoError(t, err)
	return model
}

func testInferenceService(t *testing.T) *InferenceService {
	t.Helper()
	svc, err := NewInferenceService(testForest(t), InferenceOptions{ModelPath: "memory"})
	require.NoError(t, err)
	return svc
}

// wineRow renders one semicolon separated data row.
func wineRow(alcohol float64, quality int) string {
	return fmt.Sprintf("7.4;0.7;0;1.9;0.076;11;34;0.9978;3.51;0.56;%g;%d\n", alcohol, quality)
}

func writeWineCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wine.csv")
	require.NoError(t, os.WriteFile(path, []byte(wineHeader+strings.Join(rows, "")), 0o644))
	return path
}
