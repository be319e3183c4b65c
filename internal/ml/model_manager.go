package ml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// VersionLatest resolves to the newest version that has a classifier file.
const VersionLatest = "latest"

// ModelVersion describes one version directory of a model kind.
type ModelVersion struct {
	Kind      string         `json:"kind"`
	Version   string         `json:"version"`
	Path      string         `json:"path"`
	CreatedAt time.Time      `json:"created_at"`
	HasModel  bool           `json:"has_model"`
	Metadata  *ModelMetadata `json:"metadata,omitempty"`
}

// ModelManager resolves versioned artifact directories laid out as
// <root>/<kind>/<version>/.
type ModelManager struct {
	modelsDir string
}

// NewModelManager creates a new model manager
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{modelsDir: modelsDir}
}

// Dir returns the directory of a model version.
func (mm *ModelManager) Dir(kind, version string) string {
	return filepath.Join(mm.modelsDir, kind, version)
}

// ListVersions returns the versions of a model kind, newest first. A missing
// kind directory yields an empty list.
func (mm *ModelManager) ListVersions(kind string) ([]ModelVersion, error) {
	entries, err := os.ReadDir(filepath.Join(mm.modelsDir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s versions: %w", kind, err)
	}

	versions := make([]ModelVersion, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := mm.Dir(kind, entry.Name())
		v := ModelVersion{Kind: kind, Version: entry.Name(), Path: dir}

		if info, err := os.Stat(filepath.Join(dir, ModelFile)); err == nil {
			v.HasModel = true
			v.CreatedAt = info.ModTime()
		}

		var metadata ModelMetadata
		if err := readJSON(filepath.Join(dir, MetadataFile), &metadata); err == nil {
			v.Metadata = &metadata
			if !metadata.TrainedAt.IsZero() {
				v.CreatedAt = metadata.TrainedAt
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("dir", dir).Msg("Failed to read model metadata")
		}

		versions = append(versions, v)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions, nil
}

// Latest returns the newest version with a classifier file, or nil.
func (mm *ModelManager) Latest(kind string) (*ModelVersion, error) {
	versions, err := mm.ListVersions(kind)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		if versions[i].HasModel {
			return &versions[i], nil
		}
	}
	return nil, nil
}

// Load reads the artifact of a model version. VersionLatest picks the newest
// version; when none exists the result is ErrArtifactNotFound.
func (mm *ModelManager) Load(ctx context.Context, kind, version string) (*Artifact, error) {
	if version == VersionLatest {
		latest, err := mm.Latest(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if latest == nil {
			return nil, fmt.Errorf("%w: no versions of %s", ErrArtifactNotFound, kind)
		}
		version = latest.Version
	}
	return LoadArtifact(ctx, mm.Dir(kind, version))
}
