package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"staywithme/internal/modules/plugin/domain"
	pluginout "staywithme/internal/modules/plugin/port/out"
	apperrors "staywithme/internal/platform/errors"
)

const ManifestFile = "plugins.yaml"

type manifestDocument struct {
	Plugins []domain.Manifest `yaml:"plugins"`
}

// FileManifestStore reads <dataDir>/plugins/plugins.yaml. Relative binary
// paths are resolved against the plugins directory.
type FileManifestStore struct {
	dir string
}

func NewFileManifestStore(dataDir string) pluginout.ManifestStore {
	return &FileManifestStore{dir: filepath.Join(dataDir, "plugins")}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read plugin manifests: %w", err)
	}
	var doc manifestDocument
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode %s: %v", apperrors.ErrConfiguration, ManifestFile, err)
	}
	manifests := doc.Plugins
	if manifests == nil {
		manifests = []domain.Manifest{}
	}
	for i := range manifests {
		if manifests[i].Binary != "" && !filepath.IsAbs(manifests[i].Binary) {
			manifests[i].Binary = filepath.Clean(filepath.Join(s.dir, manifests[i].Binary))
		}
	}
	return manifests, nil
}
