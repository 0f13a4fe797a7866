package in

import (
	"context"
	"time"

	"staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
)

type CLIHandler struct {
	usecase checkinin.Usecase
}

func NewCLIHandler(usecase checkinin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, duration time.Duration, substances, notes string) (dto.SessionOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{Duration: duration, Substances: substances, Notes: notes})
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) CheckIn(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Confirm(ctx, "")
}

func (h CLIHandler) End(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.End(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.SessionOutput, error) {
	return h.usecase.History(ctx, limit)
}

// Evaluate runs one escalation pass against the active session.
func (h CLIHandler) Evaluate(ctx context.Context) (dto.EvaluateOutput, error) {
	return h.usecase.Evaluate(ctx, "", dto.SourceManual)
}

func (h CLIHandler) RefreshLocation(ctx context.Context) (bool, error) {
	return h.usecase.RefreshLocation(ctx)
}
