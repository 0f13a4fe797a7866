package domain

import (
	"fmt"

	apperrors "staywithme/internal/platform/errors"
)

// Source names the timing source that asked for an evaluation.
type Source string

const (
	SourceForeground Source = "foreground"
	SourceBackground Source = "background"
	SourceManual     Source = "manual"
	SourceRemote     Source = "remote"
)

func (s Source) Validate() error {
	switch s {
	case SourceForeground, SourceBackground, SourceManual, SourceRemote:
		return nil
	default:
		return fmt.Errorf("%w: unknown evaluation source %q", apperrors.ErrInvalidInput, string(s))
	}
}
