// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliberation

import (
	"github.com/luxfi/conclave/event"
	"github.com/luxfi/ids"
)

// TalliedBody converts a Tally into the event body for VoteTallied, fixing
// the exact encoding the pipeline commits to the log — this is the single
// place the fraction fields of VoteTalliedBody get computed, so a reader
// auditing the chain can recompute them the same way.
func TalliedBody(motionID ids.ID, tally Tally) event.VoteTalliedBody {
	return event.VoteTalliedBody{
		MotionID:     motionID,
		Yea:          tally.Yea,
		Nay:          tally.Nay,
		Abstain:      tally.Abstain,
		Present:      tally.Present,
		RosterSize:   tally.RosterSize,
		CastFraction: tally.CastFraction(),
		YeaFraction:  tally.YeaFraction(),
	}
}
