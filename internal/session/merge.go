package session

import "github.com/odie-hq/odie/internal/types"

// merge folds one validated step response into the extraction snapshot.
//
// Positions accumulate across turns keyed by (company, title): a turn can
// add positions and bullets but never drop previously extracted ones.
// The index advance policy: when the turn's extractedPosition denotes a
// (company, title) pair different from the one at the current index, the
// position is appended (or re-targeted if already known) and the index
// moves to it; otherwise bullets accumulate at the current index.
func (s *Session) merge(step *types.StepResponse) {
	if step.ExtractedPosition == nil && len(step.ExtractedBullets) == 0 {
		return
	}

	if s.state.ExtractedData == nil {
		s.state.ExtractedData = &types.InterviewOutput{
			Positions: []types.PositionWithBullets{},
		}
	}
	data := s.state.ExtractedData

	if pos := step.ExtractedPosition; pos != nil {
		idx := s.state.CurrentPositionIndex
		switch {
		case len(data.Positions) == 0:
			data.Positions = append(data.Positions, types.PositionWithBullets{
				Position: *pos,
				Bullets:  []types.Bullet{},
			})
			s.state.CurrentPositionIndex = 0
		case data.Positions[idx].Position.SameRole(*pos):
			enrich(&data.Positions[idx].Position, pos)
		default:
			if k := findRole(data.Positions, *pos); k >= 0 {
				// Known position mentioned again: re-target, never duplicate.
				s.state.CurrentPositionIndex = k
				enrich(&data.Positions[k].Position, pos)
			} else {
				data.Positions = append(data.Positions, types.PositionWithBullets{
					Position: *pos,
					Bullets:  []types.Bullet{},
				})
				s.state.CurrentPositionIndex = len(data.Positions) - 1
			}
		}
	}

	// Bullets attach to the position at the current index. A bullet that
	// arrives before any position has been extracted has no owner and is
	// dropped from the snapshot; it remains visible in the step response.
	if len(step.ExtractedBullets) > 0 && len(data.Positions) > 0 {
		idx := s.state.CurrentPositionIndex
		data.Positions[idx].Bullets = append(data.Positions[idx].Bullets, step.ExtractedBullets...)
	}
}

// enrich fills optional fields of dst that a later turn supplied.
// Non-empty existing values win; extraction order is authoritative for
// what the user said first.
func enrich(dst, src *types.Position) {
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.StartDate == nil {
		dst.StartDate = src.StartDate
	}
	if dst.EndDate == nil {
		dst.EndDate = src.EndDate
	}
}

func findRole(positions []types.PositionWithBullets, pos types.Position) int {
	for i := range positions {
		if positions[i].Position.SameRole(pos) {
			return i
		}
	}
	return -1
}
