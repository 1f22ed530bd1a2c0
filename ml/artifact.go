package ml

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ArtifactFormatVersion = 1
	ArtifactForestFile    = "forest.gob"
	ArtifactMetadataFile  = "metadata.json"
)

// ArtifactMetadata is the JSON side-car stored next to the gob forest.
type ArtifactMetadata struct {
	FormatVersion int       `json:"format_version"`
	Algorithm     string    `json:"algorithm"`
	NumTrees      int       `json:"num_trees"`
	NumFeatures   int       `json:"num_features"`
	Classes       []int     `json:"classes"`
	FeatureNames  []string  `json:"feature_names,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Save writes the model as a directory holding forest.gob and metadata.json.
func (m *RandomForestModel) Save(dir string, featureNames []string) error {
	if err := m.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir failed: %w", err)
	}

	forestFile, err := os.Create(filepath.Join(dir, ArtifactForestFile))
	if err != nil {
		return fmt.Errorf("create forest file failed: %w", err)
	}
	defer forestFile.Close()
	if err := gob.NewEncoder(forestFile).Encode(m); err != nil {
		return fmt.Errorf("encode forest failed: %w", err)
	}

	meta := ArtifactMetadata{
		FormatVersion: ArtifactFormatVersion,
		Algorithm:     "random_forest_classifier",
		NumTrees:      len(m.Trees),
		NumFeatures:   m.NumFeatures,
		Classes:       m.Classes,
		FeatureNames:  featureNames,
		CreatedAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ArtifactMetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata failed: %w", err)
	}
	return nil
}

// LoadRandomForestModel reads a model saved by Save. path may also point
// straight at a forest.gob file, in which case no metadata is checked.
func LoadRandomForestModel(path string) (*RandomForestModel, *ArtifactMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat model path failed: %w", err)
	}

	forestPath := path
	var meta *ArtifactMetadata
	if info.IsDir() {
		forestPath = filepath.Join(path, ArtifactForestFile)
		meta, err = readMetadata(filepath.Join(path, ArtifactMetadataFile))
		if err != nil {
			return nil, nil, err
		}
	}

	file, err := os.Open(forestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open forest file failed: %w", err)
	}
	defer file.Close()

	var model RandomForestModel
	if err := gob.NewDecoder(file).Decode(&model); err != nil {
		return nil, nil, fmt.Errorf("%w: decode forest: %v", ErrInvalidModelArtifact, err)
	}
	if err := model.validate(); err != nil {
		if errors.Is(err, ErrModelNotLoaded) {
			return nil, nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModelArtifact)
		}
		return nil, nil, err
	}

	if meta != nil {
		if meta.FormatVersion != ArtifactFormatVersion {
			return nil, nil, fmt.Errorf("%w: format version %d", ErrInvalidModelArtifact, meta.FormatVersion)
		}
		if meta.NumFeatures != model.NumFeatures || meta.NumTrees != len(model.Trees) {
			return nil, nil, fmt.Errorf("%w: metadata says %d trees/%d features, forest has %d/%d",
				ErrInvalidModelArtifact, meta.NumTrees, meta.NumFeatures, len(model.Trees), model.NumFeatures)
		}
	}
	return &model, meta, nil
}

func readMetadata(path string) (*ArtifactMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model metadata failed: %w", err)
	}
	var meta ArtifactMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidModelArtifact, err)
	}
	return &meta, nil
}
