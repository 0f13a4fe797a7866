package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	checkinout "staywithme/internal/modules/checkin/port/out"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
)

// LocationFix is the JSON document a location helper (a phone bridge, a GPS
// daemon or a shell script) writes to the location file.
type LocationFix struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

// FileLocationProvider reads the last fix from a JSON file and ignores fixes
// older than maxAge.
type FileLocationProvider struct {
	path   string
	maxAge time.Duration
	clock  clock.Clock
}

func NewFileLocationProvider(path string, maxAge time.Duration, clk clock.Clock) checkinout.LocationProvider {
	return &FileLocationProvider{path: path, maxAge: maxAge, clock: clk}
}

func (p *FileLocationProvider) LastKnown(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if errors.Is(err, os.ErrPermission) {
		return "", false, fmt.Errorf("%w: read location file: %v", apperrors.ErrPermissionDenied, err)
	}
	if err != nil {
		return "", false, fmt.Errorf("read location file: %w", err)
	}
	var fix LocationFix
	if err := json.Unmarshal(raw, &fix); err != nil {
		return "", false, fmt.Errorf("decode location file: %w", err)
	}
	if math.Abs(fix.Latitude) > 90 || math.Abs(fix.Longitude) > 180 {
		return "", false, fmt.Errorf("%w: location out of range", apperrors.ErrInvalidInput)
	}
	if p.maxAge > 0 && !fix.RecordedAt.IsZero() && p.clock.Now().Sub(fix.RecordedAt) > p.maxAge {
		return "", false, nil
	}
	return formatCoordinate(fix.Latitude) + "," + formatCoordinate(fix.Longitude), true, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
