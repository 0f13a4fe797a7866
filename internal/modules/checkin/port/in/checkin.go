package in

import (
	"context"

	"staywithme/internal/modules/checkin/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	End(ctx context.Context) (dto.SessionOutput, error)
	// Complete ends a session whose duration has elapsed and sends the
	// completion notice once. It reports whether this call ended it.
	Complete(ctx context.Context, sessionID string) (bool, error)
	// Confirm checks in on the given session, or the active one when
	// sessionID is empty.
	Confirm(ctx context.Context, sessionID string) (dto.StatusOutput, error)
	Evaluate(ctx context.Context, sessionID string, source string) (dto.EvaluateOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	History(ctx context.Context, limit int) ([]dto.SessionOutput, error)
	RefreshLocation(ctx context.Context) (bool, error)
}
