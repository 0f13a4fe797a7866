package in

import (
	"context"
	"time"

	"staywithme/internal/modules/notify/dto"
)

type Usecase interface {
	Dispatch(ctx context.Context, input dto.DispatchInput) (dto.DispatchOutput, error)
	NotifyCompleted(ctx context.Context, sessionID string) error
	RecordReset(ctx context.Context, sessionID string) error
	PreviewMessage(ctx context.Context, input dto.PreviewInput) (string, error)
	ListLogs(ctx context.Context, sessionID string, limit int) ([]dto.LogEntryOutput, error)
	PruneLogs(ctx context.Context, before time.Time) (int64, error)
}
