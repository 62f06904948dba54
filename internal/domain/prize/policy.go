package prize

import (
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/win"
)

// ClaimPolicy decides which prizes a marking call may claim.
type ClaimPolicy interface {
	// Claims returns the prizes to attempt, in claim order.
	Claims(s *model.Session, r win.Result) []model.Prize
	// Name identifies the policy in logs.
	Name() model.BingoMode
}

// StandardPolicy claims every newly detected, still unclaimed prize.
type StandardPolicy struct{}

// Claims returns line before full card.
func (StandardPolicy) Claims(s *model.Session, r win.Result) []model.Prize {
	var out []model.Prize
	if r.HasLine && !s.LinePrizeClaimed {
		out = append(out, model.PrizeLine)
	}
	if r.HasFullCard && !s.FullCardPrizeClaimed {
		out = append(out, model.PrizeFullCard)
	}
	return out
}

// Name implements ClaimPolicy.
func (StandardPolicy) Name() model.BingoMode { return model.BingoStandard }

// ManualPolicy never claims from marking; the host announces winners.
type ManualPolicy struct{}

// Claims implements ClaimPolicy.
func (ManualPolicy) Claims(*model.Session, win.Result) []model.Prize { return nil }

// Name implements ClaimPolicy.
func (ManualPolicy) Name() model.BingoMode { return model.BingoManual }

// PolicyFor resolves the claim policy of a bingo mode.
func PolicyFor(mode model.BingoMode) ClaimPolicy {
	if mode == model.BingoManual {
		return ManualPolicy{}
	}
	return StandardPolicy{}
}
