package in

import (
	"context"
	"time"

	"staywithme/internal/modules/notify/dto"
	notifyin "staywithme/internal/modules/notify/port/in"
)

type CLIHandler struct {
	usecase notifyin.Usecase
}

func NewCLIHandler(usecase notifyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListLogs(ctx context.Context, sessionID string, limit int) ([]dto.LogEntryOutput, error) {
	return h.usecase.ListLogs(ctx, sessionID, limit)
}

func (h CLIHandler) PruneLogs(ctx context.Context, olderThan time.Duration, now time.Time) (int64, error) {
	return h.usecase.PruneLogs(ctx, now.Add(-olderThan))
}

func (h CLIHandler) Preview(ctx context.Context, location, substances, notes string) (string, error) {
	return h.usecase.PreviewMessage(ctx, dto.PreviewInput{Location: location, Substances: substances, Notes: notes})
}

// Test runs a dispatch for the given level against a throwaway session id.
func (h CLIHandler) Test(ctx context.Context, level int) (dto.DispatchOutput, error) {
	return h.usecase.Dispatch(ctx, dto.DispatchInput{SessionID: "test", Level: level})
}
