package round_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/bingonight/internal/adapters/repository"
	"github.com/okian/bingonight/internal/domain/card"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/round"
	"github.com/okian/bingonight/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type countingTimers struct{ cancelled []string }

func (c *countingTimers) CancelSession(sessionID string) int {
	c.cancelled = append(c.cancelled, sessionID)
	return 0
}

func TestEndRound(t *testing.T) {
	Convey("Given a session with a finished round", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		timers := &countingTimers{}
		coord := round.NewCoordinator(store, timers,
			round.WithCardGenerator(card.NewGenerator(card.WithRand(rand.New(rand.NewSource(7))))),
		)

		ball := 61
		sess := &model.Session{
			ID: "s1", Code: "T1", Status: model.StatusWinnerAnnounced, Mode: model.ModeBingo,
			BingoMode: model.BingoStandard, RoundNumber: 1, MaxRounds: 2,
			CurrentBall: &ball, DrawnBalls: model.IntList{1, 16, 31, 46, 61},
			LinePrizeClaimed: true, FullCardPrizeClaimed: true,
			LineWinnerID: "p1", FullCardWinnerID: "p1", WinnerNickname: "ALICE",
		}
		So(store.CreateSession(ctx, sess), ShouldBeNil)

		oldCard := model.IntList{1, 2, 3, 4, 5, 16, 17, 18, 19, 20, 31, 32, 0, 34, 35, 46, 47, 48, 49, 50, 61, 62, 63, 64, 65}
		alice := &model.Player{ID: "p1", SessionID: "s1", Nickname: "ALICE", Status: model.PlayerActive, Card: oldCard, Marked: model.IntList{0, 5, 10, 12}, Wins: 1}
		kicked := &model.Player{ID: "p2", SessionID: "s1", Nickname: "EVE", Status: model.PlayerKicked}
		So(store.CreatePlayer(ctx, alice), ShouldBeNil)
		So(store.CreatePlayer(ctx, kicked), ShouldBeNil)

		Convey("When the round ends", func() {
			res, err := coord.EndRound(ctx, sess)
			So(err, ShouldBeNil)

			Convey("Then the session is reset for the next round", func() {
				So(res.Round, ShouldEqual, 2)
				So(res.PreviousWinner, ShouldEqual, "ALICE")
				So(res.PlayersDealt, ShouldEqual, 1)

				stored, err := store.GetSession(ctx, "s1")
				So(err, ShouldBeNil)
				So(stored.RoundNumber, ShouldEqual, 2)
				So(stored.Status, ShouldEqual, model.StatusWaiting)
				So(stored.CurrentBall, ShouldBeNil)
				So(stored.DrawnBalls, ShouldBeEmpty)
				So(stored.LinePrizeClaimed, ShouldBeFalse)
				So(stored.FullCardPrizeClaimed, ShouldBeFalse)
				So(stored.LineWinnerID, ShouldBeEmpty)
				So(stored.WinnerNickname, ShouldBeEmpty)
				So(stored.PreviousRoundWinner, ShouldEqual, "ALICE")
				So(timers.cancelled, ShouldResemble, []string{"s1"})
			})

			Convey("And active players get a fresh valid card with no marks", func() {
				p, err := store.GetPlayer(ctx, "p1")
				So(err, ShouldBeNil)
				So(p.Marked, ShouldBeEmpty)
				So(card.Validate(p.Card), ShouldBeNil)
				So(p.Wins, ShouldEqual, 1)

				k, err := store.GetPlayer(ctx, "p2")
				So(err, ShouldBeNil)
				So(k.Card, ShouldBeEmpty)
			})

			Convey("And the round is announced with one card per active player", func() {
				assigned, _ := store.ListEventsByType(ctx, "s1", model.EventCardAssigned)
				So(assigned, ShouldHaveLength, 1)
				var payload map[string]any
				So(assigned[0].Decode(&payload), ShouldBeNil)
				So(payload["playerId"], ShouldEqual, "p1")
				So(payload["fingerprint"], ShouldNotBeEmpty)

				ended, _ := store.ListEventsByType(ctx, "s1", model.EventRoundEnded)
				So(ended, ShouldHaveLength, 1)
			})

			Convey("And ending again at the round limit fails", func() {
				_, err := coord.EndRound(ctx, sess)
				So(errors.Is(err, errs.ErrRoundLimitReached), ShouldBeTrue)
				So(errors.Is(err, errs.ErrLimitReached), ShouldBeTrue)

				stored, _ := store.GetSession(ctx, "s1")
				So(stored.RoundNumber, ShouldEqual, 2)
			})
		})
	})
}

func TestDeal(t *testing.T) {
	Convey("Deal replaces the card and clears marks", t, func() {
		coord := round.NewCoordinator(repository.NewMemoryStore(), &countingTimers{})
		p := &model.Player{Marked: model.IntList{1, 2}}
		coord.Deal(p)
		So(p.Card, ShouldHaveLength, model.CardSize)
		So(p.Card[model.FreeCell], ShouldEqual, model.FreeValue)
		So(p.Marked, ShouldBeEmpty)
	})
}
