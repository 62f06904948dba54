package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	workerpool "github.com/okian/bingonight/internal/adapters/mq/worker"
	service "github.com/okian/bingonight/internal/app"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/trivia"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Scenario: full bingo flow", t, func() {
		f := newFixture()

		_, err := f.svc.CreateSession(f.ctx, "T1", 3, "")
		So(err, ShouldBeNil)
		alice, err := f.svc.JoinOrReconnect(f.ctx, "T1", "Alice", "1234", "")
		So(err, ShouldBeNil)
		_, err = f.svc.StartGame(f.ctx, "T1")
		So(err, ShouldBeNil)

		var line []int
		for i := 0; i < 75; i++ {
			res, err := f.svc.DrawBall(f.ctx, "T1")
			So(err, ShouldBeNil)
			if l, ok := markableLine(alice.Player, res.DrawnBalls); ok {
				line = l
				break
			}
		}
		So(line, ShouldNotBeNil)

		res, err := f.svc.MarkCells(f.ctx, "T1", alice.Player.ID, line)
		So(err, ShouldBeNil)
		So(res.HasLine, ShouldBeTrue)
		So(res.Announced, ShouldBeTrue)
		So(res.WinType, ShouldEqual, model.PrizeLine)
		So(len(res.ValidatedCells), ShouldBeGreaterThan, 0)

		s, err := f.store.GetSessionByCode(f.ctx, "T1")
		So(err, ShouldBeNil)
		So(s.LinePrizeClaimed, ShouldBeTrue)
		So(s.LineWinnerID, ShouldEqual, alice.Player.ID)

		history, err := f.svc.GetWinnerHistory(f.ctx, "T1")
		So(err, ShouldBeNil)
		So(len(history), ShouldEqual, 1)
		var win model.WinnerPayload
		So(history[0].Decode(&win), ShouldBeNil)
		So(win.WinType, ShouldEqual, model.PrizeLine)
		So(win.Nickname, ShouldEqual, "Alice")

		Convey("Marking an undrawn number changes nothing", func() {
			before, err := f.store.GetPlayer(f.ctx, alice.Player.ID)
			So(err, ShouldBeNil)
			drawn := s.DrawnBalls.Set()
			undrawn := -1
			for idx, n := range before.Card {
				if idx != model.FreeCell && !drawn[n] {
					undrawn = idx
					break
				}
			}
			So(undrawn, ShouldBeGreaterThanOrEqualTo, 0)

			res, err := f.svc.MarkCells(f.ctx, "T1", alice.Player.ID, []int{undrawn})
			So(err, ShouldBeNil)
			So(len(res.ValidatedCells), ShouldEqual, 0)

			after, err := f.store.GetPlayer(f.ctx, alice.Player.ID)
			So(err, ShouldBeNil)
			So(after.Marked, ShouldResemble, before.Marked)
		})

		Convey("The next round starts clean", func() {
			round, err := f.svc.EndRound(f.ctx, "T1")
			So(err, ShouldBeNil)
			So(round.Round, ShouldEqual, 2)

			state, err := f.svc.GetGameState(f.ctx, "T1", alice.Player.ID)
			So(err, ShouldBeNil)
			So(state.Session.LinePrizeClaimed, ShouldBeFalse)
			So(len(state.Session.DrawnBalls), ShouldEqual, 0)
			So(len(state.Player.Marked), ShouldEqual, 0)
			So(state.RecentEvents[len(state.RecentEvents)-1].Type, ShouldEqual, model.EventRoundEnded)
		})
	})

	Convey("Scenario: trivia timing", t, func() {
		f := newFixture()
		sess, err := f.svc.CreateSession(f.ctx, "Q1", 3, "")
		So(err, ShouldBeNil)
		alice, err := f.svc.JoinOrReconnect(f.ctx, "Q1", "ALICE", "1234", "")
		So(err, ShouldBeNil)
		bob, err := f.svc.JoinOrReconnect(f.ctx, "Q1", "BOB", "4321", "")
		So(err, ShouldBeNil)

		q, err := f.svc.AddQuestion(f.ctx, "Q1", trivia.QuestionInput{
			Text:             "2 + 2?",
			Options:          []string{"3", "4", "5", "22"},
			CorrectIndex:     1,
			TimeLimitSeconds: 10,
			Points:           10,
		})
		So(err, ShouldBeNil)
		_, err = f.svc.StartQuestion(f.ctx, "Q1", q.ID)
		So(err, ShouldBeNil)

		Convey("A correct answer at 5s earns the bonus, a late one fails", func() {
			f.clock.Advance(5 * time.Second)
			res, err := f.svc.SubmitAnswer(f.ctx, "Q1", alice.Player.ID, q.ID, 1)
			So(err, ShouldBeNil)
			So(res.IsCorrect, ShouldBeTrue)
			So(res.PointsEarned, ShouldEqual, 12)

			_, err = f.svc.SubmitAnswer(f.ctx, "Q1", alice.Player.ID, q.ID, 1)
			So(errors.Is(err, errs.ErrAlreadyAnswered), ShouldBeTrue)

			f.clock.Advance(6 * time.Second)
			_, err = f.svc.SubmitAnswer(f.ctx, "Q1", bob.Player.ID, q.ID, 1)
			So(errors.Is(err, errs.ErrTimeExpired), ShouldBeTrue)
		})

		Convey("The state hides the answer while the question runs", func() {
			state, err := f.svc.GetGameState(f.ctx, "Q1", "")
			So(err, ShouldBeNil)
			So(state.CurrentQuestion, ShouldNotBeNil)
			So(state.CurrentQuestion.CorrectIndex, ShouldBeNil)
			So(state.CurrentQuestion.EndsAt, ShouldNotBeNil)
		})

		Convey("The expiry timer and a host end resolve once", func() {
			fire := f.timers.callback(sess.ID, q.ID)
			So(fire, ShouldNotBeNil)

			results, err := f.svc.EndQuestion(f.ctx, "Q1")
			So(err, ShouldBeNil)
			So(results.CorrectIndex, ShouldEqual, 1)
			So(f.timers.Pending(), ShouldEqual, 0)

			So(fire(context.Background()), ShouldBeNil)
			events, err := f.store.ListEventsByType(f.ctx, sess.ID, model.EventQuestionResults)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 1)

			state, err := f.svc.GetGameState(f.ctx, "Q1", "")
			So(err, ShouldBeNil)
			So(*state.CurrentQuestion.CorrectIndex, ShouldEqual, 1)
		})

		Convey("The expiry timer resolves an unanswered question", func() {
			f.clock.Advance(10 * time.Second)
			So(f.timers.callback(sess.ID, q.ID)(context.Background()), ShouldBeNil)

			got, err := f.store.GetQuestion(f.ctx, q.ID)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, model.QuestionResults)

			_, err = f.svc.EndQuestion(f.ctx, "Q1")
			So(errors.Is(err, errs.ErrInvalidState), ShouldBeTrue)
		})

		Convey("Ending the round resolves the running question", func() {
			_, err := f.svc.EndRound(f.ctx, "Q1")
			So(err, ShouldBeNil)
			So(f.timers.Pending(), ShouldEqual, 0)

			got, err := f.store.GetQuestion(f.ctx, q.ID)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, model.QuestionResults)
		})

		Convey("Pause and resume keep the remaining time", func() {
			f.clock.Advance(4 * time.Second)
			st, err := f.svc.PauseOrResumeQuestion(f.ctx, "Q1")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, model.QuestionPaused)
			So(f.timers.Pending(), ShouldEqual, 0)

			_, err = f.svc.SubmitAnswer(f.ctx, "Q1", alice.Player.ID, q.ID, 1)
			So(errors.Is(err, errs.ErrInvalidState), ShouldBeTrue)

			f.clock.Advance(time.Minute)
			st, err = f.svc.PauseOrResumeQuestion(f.ctx, "Q1")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, model.QuestionActive)
			So(f.timers.Pending(), ShouldEqual, 1)

			res, err := f.svc.SubmitAnswer(f.ctx, "Q1", alice.Player.ID, q.ID, 1)
			So(err, ShouldBeNil)
			So(res.PointsEarned, ShouldEqual, 13)
		})

		Convey("Next walks the quiz and EndQuiz closes it", func() {
			q2, err := f.svc.AddQuestion(f.ctx, "Q1", trivia.QuestionInput{
				Text:    "Sky color?",
				Options: []string{"Blue", "Red", "Green", "Pink"},
			})
			So(err, ShouldBeNil)

			next, err := f.svc.NextQuestion(f.ctx, "Q1")
			So(err, ShouldBeNil)
			So(next.ID, ShouldEqual, q2.ID)

			_, err = f.svc.NextQuestion(f.ctx, "Q1")
			So(errors.Is(err, errs.ErrNoMoreQuestions), ShouldBeTrue)

			So(f.svc.EndQuiz(f.ctx, "Q1"), ShouldBeNil)
			qs, err := f.svc.Questions(f.ctx, "Q1")
			So(err, ShouldBeNil)
			for _, q := range qs {
				So(q.Status, ShouldEqual, model.QuestionEnded)
			}
		})
	})
}

func TestExecute(t *testing.T) {
	Convey("Given a session driven through commands", t, func() {
		f := newFixture()
		_, err := f.svc.CreateSession(f.ctx, "T1", 3, "")
		So(err, ShouldBeNil)

		out, err := f.svc.Execute(f.ctx, "T1", service.StartGameCommand{})
		So(err, ShouldBeNil)
		So(out.(*model.Session).Status, ShouldEqual, model.StatusActive)

		out, err = f.svc.Execute(f.ctx, "T1", service.DrawBallCommand{})
		So(err, ShouldBeNil)
		So(out, ShouldNotBeNil)

		out, err = f.svc.Execute(f.ctx, "T1", service.CreateTeamCommand{Name: "Reds", Color: "#f00"})
		So(err, ShouldBeNil)
		team := out.(*model.Team)

		_, err = f.svc.Execute(f.ctx, "T1", service.DeleteTeamCommand{TeamID: team.ID})
		So(err, ShouldBeNil)

		out, err = f.svc.Execute(f.ctx, "T1", service.AddQuestionCommand{QuestionInput: trivia.QuestionInput{
			Text:    "Capital of Italy?",
			Options: []string{"Rome", "Milan", "Turin", "Naples"},
		}})
		So(err, ShouldBeNil)
		q := out.(*model.Question)

		_, err = f.svc.Execute(f.ctx, "T1", service.StartQuestionCommand{QuestionID: q.ID})
		So(err, ShouldBeNil)
		out, err = f.svc.Execute(f.ctx, "T1", service.PauseResumeQuestionCommand{})
		So(err, ShouldBeNil)
		So(out, ShouldResemble, map[string]model.QuestionStatus{"status": model.QuestionPaused})

		_, err = f.svc.Execute(f.ctx, "T1", service.EndQuestionCommand{})
		So(err, ShouldBeNil)
		_, err = f.svc.Execute(f.ctx, "T1", service.EndQuizCommand{})
		So(err, ShouldBeNil)

		_, err = f.svc.Execute(f.ctx, "T1", service.SwitchModeCommand{Mode: model.ModeTrivia})
		So(errors.Is(err, errs.ErrInvalidState), ShouldBeTrue)

		_, err = f.svc.Execute(f.ctx, "T1", nil)
		So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
	})
}

func TestPurge(t *testing.T) {
	Convey("Given sessions with pending timers and an archiver", t, func() {
		archiver := &fakeArchiver{}
		f := newFixture(service.WithArchiver(archiver))
		for _, code := range []string{"A1", "B2"} {
			_, err := f.svc.CreateSession(f.ctx, code, 3, "")
			So(err, ShouldBeNil)
			_, err = f.svc.JoinOrReconnect(f.ctx, code, "ALICE", "1234", "")
			So(err, ShouldBeNil)
		}
		_, err := f.svc.AddQuestion(f.ctx, "A1", trivia.QuestionInput{
			Text:    "Pick one",
			Options: []string{"a", "b", "c", "d"},
		})
		So(err, ShouldBeNil)
		_, err = f.svc.NextQuestion(f.ctx, "A1")
		So(err, ShouldBeNil)
		So(f.timers.Pending(), ShouldEqual, 1)

		Convey("Purging sessions archives and removes them", func() {
			n, err := f.svc.PurgeSessions(f.ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			So(f.timers.Pending(), ShouldEqual, 0)
			So(archiver.sessions["A1"], ShouldEqual, 3)
			So(archiver.sessions["B2"], ShouldEqual, 2)

			_, err = f.svc.GetGameState(f.ctx, "A1", "")
			So(errors.Is(err, errs.ErrSessionNotFound), ShouldBeTrue)

			stats, err := f.svc.Stats(f.ctx)
			So(err, ShouldBeNil)
			So(stats.Sessions, ShouldEqual, 0)
		})

		Convey("A failed archive leaves sessions and their timers in place", func() {
			archiver.err = errors.New("bucket unavailable")
			_, err := f.svc.PurgeSessions(f.ctx)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, archiver.err), ShouldBeTrue)
			So(f.timers.Pending(), ShouldEqual, 1)

			qs, err := f.svc.Questions(f.ctx, "A1")
			So(err, ShouldBeNil)
			So(qs[0].Status, ShouldEqual, model.QuestionActive)
			stats, err := f.svc.Stats(f.ctx)
			So(err, ShouldBeNil)
			So(stats.Sessions, ShouldEqual, 2)
		})

		Convey("Purging players leaves sessions", func() {
			n, err := f.svc.PurgePlayers(f.ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			state, err := f.svc.GetGameState(f.ctx, "B2", "")
			So(err, ShouldBeNil)
			So(len(state.Players), ShouldEqual, 0)
		})
	})
}

// collectSink gathers outbox events.
type collectSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *collectSink) Name() string { return "collect" }

func (c *collectSink) Handle(_ context.Context, e model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectSink) types() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func TestOutbox(t *testing.T) {
	Convey("Given a started service with a sink", t, func() {
		sink := &collectSink{}
		f := newFixture(service.WithSinks(sink), service.WithOutbox(64, 1))
		So(f.svc.Start(f.ctx), ShouldBeNil)

		Convey("Appended events reach the sink", func() {
			_, err := f.svc.CreateSession(f.ctx, "T1", 3, "")
			So(err, ShouldBeNil)
			_, err = f.svc.StartGame(f.ctx, "T1")
			So(err, ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			So(f.svc.Stop(ctx), ShouldBeNil)
			So(sink.types(), ShouldResemble, []model.EventType{model.EventSessionCreated, model.EventGameStarted})
		})
	})
}

var _ workerpool.Sink = (*collectSink)(nil)

func TestGetGameState(t *testing.T) {
	Convey("Given a session with a short event window", t, func() {
		f := newFixture(service.WithRecentEvents(2))
		_, err := f.svc.CreateSession(f.ctx, "T1", 3, "")
		So(err, ShouldBeNil)
		alice, err := f.svc.JoinOrReconnect(f.ctx, "T1", "ALICE", "1234", "")
		So(err, ShouldBeNil)
		_, err = f.svc.StartGame(f.ctx, "T1")
		So(err, ShouldBeNil)

		Convey("Only the latest events are returned, oldest first", func() {
			state, err := f.svc.GetGameState(f.ctx, "T1", alice.Player.ID)
			So(err, ShouldBeNil)
			So(len(state.RecentEvents), ShouldEqual, 2)
			So(state.RecentEvents[0].Type, ShouldEqual, model.EventPlayerJoined)
			So(state.RecentEvents[1].Type, ShouldEqual, model.EventGameStarted)
			So(state.Player.ID, ShouldEqual, alice.Player.ID)
			So(len(state.Players), ShouldEqual, 1)
			So(state.CurrentQuestion, ShouldBeNil)
		})

		Convey("An unknown player is reported", func() {
			_, err := f.svc.GetGameState(f.ctx, "T1", "nobody")
			So(errors.Is(err, errs.ErrPlayerNotFound), ShouldBeTrue)
		})

		Convey("An unknown session is reported", func() {
			_, err := f.svc.GetGameState(f.ctx, "NOPE", "")
			So(errors.Is(err, errs.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}
