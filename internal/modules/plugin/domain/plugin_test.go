package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywithme/internal/modules/plugin/domain"
	apperrors "staywithme/internal/platform/errors"
)

const validSHA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func validManifest() domain.Manifest {
	return domain.Manifest{
		Name:         "twilio",
		Version:      "1.2.0",
		Binary:       "/opt/staywithme/twilio",
		SHA256:       validSHA,
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilitySMS},
	}
}

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	cases := map[string]func(m *domain.Manifest){
		"missing name":         func(m *domain.Manifest) { m.Name = "" },
		"missing version":      func(m *domain.Manifest) { m.Version = "" },
		"missing binary":       func(m *domain.Manifest) { m.Binary = "" },
		"uppercase sha":        func(m *domain.Manifest) { m.SHA256 = "A" + validSHA[1:] },
		"no capabilities":      func(m *domain.Manifest) { m.Capabilities = nil },
		"duplicate capability": func(m *domain.Manifest) { m.Capabilities = append(m.Capabilities, domain.CapabilitySMS) },
		"unknown capability":   func(m *domain.Manifest) { m.Capabilities = []domain.Capability{"voice"} },
		"negative timeout":     func(m *domain.Manifest) { m.SendTimeout = -time.Second },
		"timeout too long":     func(m *domain.Manifest) { m.SendTimeout = 2 * time.Minute },
	}
	require.NoError(t, validManifest().Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := validManifest()
			mutate(&m)
			assert.ErrorIs(t, m.Validate(), apperrors.ErrInvalidInput)
		})
	}
}

func TestManifestTimeoutDefaults(t *testing.T) {
	t.Parallel()
	m := validManifest()
	assert.Equal(t, domain.DefaultSendTimeout, m.Timeout())
	m.SendTimeout = 20 * time.Second
	assert.Equal(t, 20*time.Second, m.Timeout())
}

func TestMetadataCheck(t *testing.T) {
	t.Parallel()
	m := validManifest()
	reported := domain.Metadata{Name: "twilio", Version: "1.2.0", Capabilities: []domain.Capability{domain.CapabilitySMS}}
	require.NoError(t, reported.Check(m))

	stale := reported
	stale.Version = "1.1.0"
	assert.ErrorIs(t, stale.Check(m), domain.ErrMetadataMismatch)

	renamed := reported
	renamed.Name = "other"
	assert.ErrorIs(t, renamed.Check(m), domain.ErrMetadataMismatch)

	mute := reported
	mute.Capabilities = nil
	assert.ErrorIs(t, mute.Check(m), domain.ErrCapabilityMissing)
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, domain.Message{To: "+15550100", Body: "hi"}.Validate())
	assert.ErrorIs(t, domain.Message{To: " ", Body: "hi"}.Validate(), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, domain.Message{To: "+15550100"}.Validate(), apperrors.ErrInvalidInput)
	assert.True(t, validManifest().HasCapability(domain.CapabilitySMS))
	assert.False(t, validManifest().HasCapability("voice"))
}
