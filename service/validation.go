package service

import (
	"math"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/mzeile/inkroom/models"
)

// StrokeInput is the raw stroke shape as clients send it. Width is accepted
// under the historical "size" key too, and pressure may be absent per point;
// pointer fields distinguish absent from zero.
type StrokeInput struct {
	ID        string       `json:"id"`
	Tool      string       `json:"tool"`
	Color     string       `json:"color"`
	Width     *float64     `json:"width"`
	Size      *float64     `json:"size"`
	Points    []PointInput `json:"points"`
	CreatedAt int64        `json:"createdAt"`
}

type PointInput struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Pressure *float64 `json:"pressure"`
}

const defaultPressure = 0.5

// normalizeStroke validates the raw input and produces the canonical stroke
// that is appended to history and echoed to the room. Rejections are silent
// at the protocol level, so the only signal is ErrValidationRejected.
func normalizeStroke(in StrokeInput) (models.Stroke, error) {
	width := in.Width
	if width == nil {
		width = in.Size
	}
	if width == nil || !isFinite(*width) || *width <= 0 {
		return models.Stroke{}, ErrValidationRejected
	}

	if len(in.Points) == 0 {
		return models.Stroke{}, ErrValidationRejected
	}

	points := make([]models.Point, 0, len(in.Points))
	for _, p := range in.Points {
		if p.X == nil || p.Y == nil || !isFinite(*p.X) || !isFinite(*p.Y) {
			return models.Stroke{}, ErrValidationRejected
		}
		pressure := defaultPressure
		if p.Pressure != nil && isFinite(*p.Pressure) && *p.Pressure > 0 && *p.Pressure <= 2 {
			pressure = *p.Pressure
		}
		points = append(points, models.Point{X: *p.X, Y: *p.Y, Pressure: pressure})
	}

	tool := models.ToolPen
	if in.Tool == models.ToolEraser {
		tool = models.ToolEraser
	}

	id := in.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	createdAt := in.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	return models.Stroke{
		ID:        id,
		Tool:      tool,
		Color:     in.Color,
		Width:     *width,
		Points:    points,
		CreatedAt: createdAt,
	}, nil
}

// parseSnapshot classifies a client snapshot string as structured JSON or a
// raster data URL. Anything else is rejected; the trimmed value is stored
// verbatim.
func parseSnapshot(raw string) (models.CanvasSnapshot, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "{"):
		return models.CanvasSnapshot{Kind: models.SnapshotStructured, Data: []byte(trimmed)}, nil
	case strings.HasPrefix(trimmed, "data:image/"):
		return models.CanvasSnapshot{Kind: models.SnapshotRaster, Data: []byte(trimmed)}, nil
	default:
		return models.CanvasSnapshot{}, ErrValidationRejected
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
