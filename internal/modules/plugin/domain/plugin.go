package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "staywithme/internal/platform/errors"
)

type Capability string

// CapabilitySMS marks a plugin able to deliver a text to a phone number.
const CapabilitySMS Capability = "sms"

const (
	DefaultSendTimeout = 5 * time.Second
	MaxSendTimeout     = time.Minute
)

var (
	ErrPluginDisabled    = errors.New("plugin is disabled")
	ErrPluginNotFound    = errors.New("plugin not found")
	ErrChecksumMismatch  = errors.New("plugin checksum mismatch")
	ErrCapabilityMissing = errors.New("plugin capability missing")
	ErrPluginTimeout     = errors.New("plugin timeout")
	ErrMessageRejected   = errors.New("plugin rejected message")
	ErrMetadataMismatch  = errors.New("plugin metadata does not match manifest")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest is one entry of plugins/plugins.yaml. The checksum pins the binary
// so a swapped executable never receives contact phone numbers.
type Manifest struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Binary       string        `yaml:"binary"`
	SHA256       string        `yaml:"sha256"`
	Enabled      bool          `yaml:"enabled"`
	Capabilities []Capability  `yaml:"capabilities"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return invalid("plugin name is required")
	case m.Version == "":
		return invalid("plugin %s: version is required", m.Name)
	case m.Binary == "":
		return invalid("plugin %s: binary path is required", m.Name)
	case !sha256Pattern.MatchString(m.SHA256):
		return invalid("plugin %s: sha256 must be lowercase 64-char hex", m.Name)
	case len(m.Capabilities) == 0:
		return invalid("plugin %s: capabilities are required", m.Name)
	case m.SendTimeout < 0 || m.SendTimeout > MaxSendTimeout:
		return invalid("plugin %s: send_timeout must be within [0, %s]", m.Name, MaxSendTimeout)
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
		if _, ok := seen[capability]; ok {
			return invalid("plugin %s: duplicate capability %s", m.Name, capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

// Timeout is the budget for a single send, launch included.
func (m Manifest) Timeout() time.Duration {
	if m.SendTimeout <= 0 {
		return DefaultSendTimeout
	}
	return m.SendTimeout
}

func (c Capability) Validate() error {
	if c != CapabilitySMS {
		return invalid("unknown capability: %s", c)
	}
	return nil
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Metadata is what a running plugin reports about itself.
type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

// Check compares the running plugin with its manifest entry.
func (md Metadata) Check(m Manifest) error {
	if md.Name != m.Name {
		return fmt.Errorf("%w: name %q, manifest %q", ErrMetadataMismatch, md.Name, m.Name)
	}
	if md.Version != m.Version {
		return fmt.Errorf("%w: version %q, manifest %q", ErrMetadataMismatch, md.Version, m.Version)
	}
	for _, c := range m.Capabilities {
		found := false
		for _, reported := range md.Capabilities {
			if reported == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s not reported", ErrCapabilityMissing, c)
		}
	}
	return nil
}

// Message is a single text handed to a delivery plugin.
type Message struct {
	To   string
	Body string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return invalid("message recipient is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		return invalid("message body is required")
	}
	return nil
}

type Receipt struct {
	MessageID string
	Accepted  bool
	Detail    string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperrors.ErrInvalidInput}, args...)...)
}
