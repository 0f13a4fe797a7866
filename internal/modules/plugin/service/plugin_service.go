package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"staywithme/internal/modules/plugin/domain"
	"staywithme/internal/modules/plugin/dto"
	pluginout "staywithme/internal/modules/plugin/port/out"
	apperrors "staywithme/internal/platform/errors"
)

type PluginService struct {
	store pluginout.ManifestStore
	host  pluginout.Host
}

func NewPluginService(store pluginout.ManifestStore, host pluginout.Host) *PluginService {
	return &PluginService{store: store, host: host}
}

func (s *PluginService) List(ctx context.Context) ([]dto.PluginInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(manifests))
	for _, m := range manifests {
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		out = append(out, dto.PluginInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Capabilities: caps})
	}
	return out, nil
}

// Doctor checks every manifest entry independently: binary present, checksum
// pinned, and, for enabled plugins, a launch whose reported metadata matches.
func (s *PluginService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		results = append(results, s.diagnose(ctx, m))
	}
	return results, nil
}

func (s *PluginService) diagnose(ctx context.Context, m domain.Manifest) dto.DoctorResult {
	result := dto.DoctorResult{Name: m.Name}
	if err := m.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := os.Stat(m.Binary); err != nil {
		result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		return result
	}
	result.BinaryReachable = true
	if err := checksumMatches(m.Binary, m.SHA256); err != nil {
		result.Error = err.Error()
		return result
	}
	result.ChecksumValid = true
	if !m.Enabled || s.host == nil {
		return result
	}
	metadata, err := s.host.GetMetadata(ctx, m)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ReportedVersion = metadata.Version
	if err := metadata.Check(m); err != nil {
		result.Error = err.Error()
		return result
	}
	result.LifecycleOK = true
	return result
}

// SendText hands one message to the named plugin. The plugin must be
// enabled, declare the sms capability and match its pinned checksum. The
// binary is launched once per message.
func (s *PluginService) SendText(ctx context.Context, input dto.SendTextInput) (dto.SendTextOutput, error) {
	message := domain.Message{To: input.Phone, Body: input.Body}
	if err := message.Validate(); err != nil {
		return dto.SendTextOutput{}, err
	}
	manifest, err := s.runnableManifest(ctx, input.PluginName)
	if err != nil {
		return dto.SendTextOutput{}, err
	}
	receipt, err := s.host.SendText(ctx, manifest, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dto.SendTextOutput{}, fmt.Errorf("%w: %w: %s", apperrors.ErrDeliveryFailure, domain.ErrPluginTimeout, manifest.Name)
		}
		return dto.SendTextOutput{}, fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailure, err)
	}
	if !receipt.Accepted {
		return dto.SendTextOutput{}, fmt.Errorf("%w: %w: %s", apperrors.ErrDeliveryFailure, domain.ErrMessageRejected, receipt.Detail)
	}
	return dto.SendTextOutput{PluginName: manifest.Name, MessageID: receipt.MessageID, Detail: receipt.Detail}, nil
}

func (s *PluginService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[manifest.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate plugin name %s", apperrors.ErrConfiguration, manifest.Name)
		}
		seen[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func (s *PluginService) runnableManifest(ctx context.Context, name string) (domain.Manifest, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	for _, manifest := range manifests {
		if manifest.Name != name {
			continue
		}
		if !manifest.Enabled {
			return domain.Manifest{}, fmt.Errorf("%w: %w: %s", apperrors.ErrConfiguration, domain.ErrPluginDisabled, name)
		}
		if !manifest.HasCapability(domain.CapabilitySMS) {
			return domain.Manifest{}, fmt.Errorf("%w: %w: %s", apperrors.ErrConfiguration, domain.ErrCapabilityMissing, domain.CapabilitySMS)
		}
		if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
			return domain.Manifest{}, err
		}
		if s.host == nil {
			return domain.Manifest{}, fmt.Errorf("%w: plugin host is not configured", apperrors.ErrConfiguration)
		}
		return manifest, nil
	}
	return domain.Manifest{}, fmt.Errorf("%w: %w: %s", apperrors.ErrNotFound, domain.ErrPluginNotFound, name)
}

func checksumMatches(path string, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read plugin binary: %w", err)
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("hash plugin binary: %w", err)
	}
	if hex.EncodeToString(hash.Sum(nil)) != expected {
		return fmt.Errorf("%w: %w: %s", apperrors.ErrPermissionDenied, domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}
