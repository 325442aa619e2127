package maze

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
)

// jsonRecord mirrors the external map-input wire format: segments as
// {start, end} coordinate pairs, a start point, and an optional goal.
// Standard-library JSON is used for this boundary decode deliberately:
// the map format is a small, fixed external contract rather than an
// ambient engine concern, and nothing in the retrieved dependency set
// covers bespoke coordinate-pair wire formats better than encoding/json.
type jsonRecord struct {
	Segments []struct {
		Start [2]float64 `json:"start"`
		End   [2]float64 `json:"end"`
	} `json:"segments"`
	StartPoint [2]float64  `json:"start_point"`
	GoalPoint  *[2]float64 `json:"goal_point,omitempty"`
}

// LoadRecord decodes raw JSON bytes into a Record, ready to pass to
// New. It performs no semantic validation; New applies the map's
// malformed-input checks.
func LoadRecord(raw []byte) (Record, error) {
	var jr jsonRecord
	if err := json.Unmarshal(raw, &jr); err != nil {
		return Record{}, fmt.Errorf("maze: invalid map JSON: %w", err)
	}

	record := Record{
		Segments: make([]geometry.Segment, len(jr.Segments)),
		Start:    r2.Point{X: jr.StartPoint[0], Y: jr.StartPoint[1]},
	}
	for i, s := range jr.Segments {
		record.Segments[i] = geometry.Segment{
			A: r2.Point{X: s.Start[0], Y: s.Start[1]},
			B: r2.Point{X: s.End[0], Y: s.End[1]},
		}
	}
	if jr.GoalPoint != nil {
		g := r2.Point{X: jr.GoalPoint[0], Y: jr.GoalPoint[1]}
		record.Goal = &g
	}
	return record, nil
}
