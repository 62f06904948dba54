package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newSession(id, code string) *model.Session {
	return &model.Session{
		ID:          id,
		Code:        code,
		Status:      model.StatusWaiting,
		Mode:        model.ModeBingo,
		BingoMode:   model.BingoStandard,
		RoundNumber: 1,
		MaxRounds:   3,
		DrawnBalls:  model.IntList{},
	}
}

func newPlayer(id, sessionID, nick string) *model.Player {
	return &model.Player{
		ID:        id,
		SessionID: sessionID,
		Nickname:  nick,
		Pin:       "1234",
		Status:    model.PlayerActive,
		Card:      model.IntList{5, 3, 1, 15, 9},
		Marked:    model.IntList{12, 0},
	}
}

// testStoreContract runs behavior every Store implementation must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("sessions", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateSession(ctx, newSession("s1", "T1")); err != nil {
			t.Fatalf("create session: %v", err)
		}
		err := s.CreateSession(ctx, newSession("s2", "T1"))
		if !errors.Is(err, ErrConflict) || !errors.Is(err, errs.ErrInvalidState) {
			t.Fatalf("expected conflict on duplicate code, got %v", err)
		}

		got, err := s.GetSessionByCode(ctx, "T1")
		if err != nil {
			t.Fatalf("get by code: %v", err)
		}
		if got.ID != "s1" || got.RoundNumber != 1 {
			t.Errorf("unexpected session %+v", got)
		}

		ball := 42
		got.Status = model.StatusActive
		got.DrawnBalls = model.IntList{42, 7, 70}
		got.CurrentBall = &ball
		if err := s.SaveSession(ctx, got); err != nil {
			t.Fatalf("save session: %v", err)
		}
		again, err := s.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if again.Status != model.StatusActive || again.CurrentBall == nil || *again.CurrentBall != 42 {
			t.Errorf("session not saved: %+v", again)
		}
		want := []int{42, 7, 70}
		for i, n := range want {
			if again.DrawnBalls[i] != n {
				t.Fatalf("drawn balls reordered: %v", again.DrawnBalls)
			}
		}

		if _, err := s.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) || !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
		if err := s.SaveSession(ctx, newSession("missing", "ZZ")); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected not found on save, got %v", err)
		}
		if n, err := s.CountSessions(ctx); err != nil || n != 1 {
			t.Errorf("expected 1 session, got %d (%v)", n, err)
		}
	})

	t.Run("claim prize", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateSession(ctx, newSession("s1", "T1")); err != nil {
			t.Fatalf("create session: %v", err)
		}
		line := model.Claim{Prize: model.PrizeLine, PlayerID: "p1", Nickname: "ALICE"}
		ok, err := s.ClaimPrize(ctx, "s1", line)
		if err != nil || !ok {
			t.Fatalf("first claim: ok=%v err=%v", ok, err)
		}
		ok, err = s.ClaimPrize(ctx, "s1", model.Claim{Prize: model.PrizeLine, PlayerID: "p2"})
		if err != nil || ok {
			t.Fatalf("second claim: ok=%v err=%v", ok, err)
		}
		full := model.Claim{Prize: model.PrizeFullCard, PlayerID: "p2", Nickname: "BOB"}
		if ok, err := s.ClaimPrize(ctx, "s1", full); err != nil || !ok {
			t.Fatalf("full card claim: ok=%v err=%v", ok, err)
		}

		got, err := s.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if !got.LinePrizeClaimed || got.LineWinnerID != "p1" {
			t.Errorf("line claim not stored: %+v", got)
		}
		if !got.FullCardPrizeClaimed || got.FullCardWinnerID != "p2" || got.WinnerNickname != "BOB" {
			t.Errorf("full card claim not stored: %+v", got)
		}
		if got.Status != model.StatusWinnerAnnounced {
			t.Errorf("expected winner_announced, got %s", got.Status)
		}
		if _, err := s.ClaimPrize(ctx, "missing", line); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("players and teams", func(t *testing.T) {
		s := newStore(t)
		for _, sess := range []*model.Session{newSession("s1", "T1"), newSession("s2", "T2")} {
			if err := s.CreateSession(ctx, sess); err != nil {
				t.Fatalf("create session: %v", err)
			}
		}
		if err := s.CreatePlayer(ctx, newPlayer("p1", "s1", "ALICE")); err != nil {
			t.Fatalf("create player: %v", err)
		}
		if err := s.CreatePlayer(ctx, newPlayer("p2", "s1", "BOB")); err != nil {
			t.Fatalf("create player: %v", err)
		}
		if err := s.CreatePlayer(ctx, newPlayer("p3", "s1", "ALICE")); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected nickname conflict, got %v", err)
		}
		if err := s.CreatePlayer(ctx, newPlayer("p4", "s2", "ALICE")); err != nil {
			t.Fatalf("same nickname in another session: %v", err)
		}

		p, err := s.GetPlayerByNickname(ctx, "s1", "ALICE")
		if err != nil {
			t.Fatalf("get by nickname: %v", err)
		}
		if p.Card[0] != 5 || p.Card[3] != 15 || p.Marked[0] != 12 {
			t.Errorf("lists reordered: card=%v marked=%v", p.Card, p.Marked)
		}

		team := &model.Team{ID: "t1", SessionID: "s1", Name: "Red", Color: "#f00"}
		if err := s.CreateTeam(ctx, team); err != nil {
			t.Fatalf("create team: %v", err)
		}
		dup := &model.Team{ID: "t2", SessionID: "s1", Name: "RED"}
		if err := s.CreateTeam(ctx, dup); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected case-insensitive name conflict, got %v", err)
		}

		p.TeamID = "t1"
		p.Marked = append(p.Marked, 3)
		if err := s.SavePlayer(ctx, p); err != nil {
			t.Fatalf("save player: %v", err)
		}
		players, err := s.ListPlayers(ctx, "s1")
		if err != nil {
			t.Fatalf("list players: %v", err)
		}
		if len(players) != 2 || players[0].ID != "p1" || players[1].ID != "p2" {
			t.Fatalf("unexpected players %+v", players)
		}
		if players[0].TeamID != "t1" || len(players[0].Marked) != 3 {
			t.Errorf("player not saved: %+v", players[0])
		}

		if err := s.DeleteTeam(ctx, "t1"); err != nil {
			t.Fatalf("delete team: %v", err)
		}
		after, err := s.GetPlayer(ctx, "p1")
		if err != nil {
			t.Fatalf("get player: %v", err)
		}
		if after.TeamID != "" {
			t.Errorf("expected team reference cleared, got %q", after.TeamID)
		}
		if err := s.DeleteTeam(ctx, "t1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected not found deleting twice, got %v", err)
		}
	})

	t.Run("questions and answers", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateSession(ctx, newSession("s1", "T1")); err != nil {
			t.Fatalf("create session: %v", err)
		}
		for i, id := range []string{"q2", "q1"} {
			q := &model.Question{
				ID:        id,
				SessionID: "s1",
				Seq:       int64(2 - i),
				Text:      "Capital of France?",
				Options:   model.StringList{"Paris", "Rome", "Oslo", "Bern"},
				Status:    model.QuestionInactive,
			}
			if err := s.CreateQuestion(ctx, q); err != nil {
				t.Fatalf("create question: %v", err)
			}
		}
		qs, err := s.ListQuestions(ctx, "s1")
		if err != nil {
			t.Fatalf("list questions: %v", err)
		}
		if len(qs) != 2 || qs[0].ID != "q1" || qs[1].ID != "q2" {
			t.Fatalf("questions not ordered by seq: %+v", qs)
		}
		if qs[0].Options[3] != "Bern" {
			t.Errorf("options reordered: %v", qs[0].Options)
		}

		a := &model.Answer{ID: "a1", SessionID: "s1", PlayerID: "p1", QuestionID: "q1", SelectedIndex: 0, IsCorrect: true, PointsEarned: 12}
		if err := s.CreateAnswer(ctx, a); err != nil {
			t.Fatalf("create answer: %v", err)
		}
		dup := &model.Answer{ID: "a2", SessionID: "s1", PlayerID: "p1", QuestionID: "q1", SelectedIndex: 1}
		if err := s.CreateAnswer(ctx, dup); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected duplicate answer conflict, got %v", err)
		}
		answers, err := s.ListAnswers(ctx, "q1")
		if err != nil || len(answers) != 1 || answers[0].PointsEarned != 12 {
			t.Fatalf("unexpected answers %+v (%v)", answers, err)
		}

		if err := s.DeleteQuestion(ctx, "q1"); err != nil {
			t.Fatalf("delete question: %v", err)
		}
		if answers, _ := s.ListAnswers(ctx, "q1"); len(answers) != 0 {
			t.Errorf("expected answers removed, got %d", len(answers))
		}
		if _, err := s.GetQuestion(ctx, "q1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("events", func(t *testing.T) {
		s := newStore(t)
		types := []model.EventType{model.EventGameStarted, model.EventBallDrawn, model.EventWinnerAnnounced, model.EventBallDrawn}
		var last int64
		for i, typ := range types {
			ev, err := model.NewEvent("s1", typ, map[string]int{"i": i})
			if err != nil {
				t.Fatalf("new event: %v", err)
			}
			if err := s.AppendEvent(ctx, ev); err != nil {
				t.Fatalf("append event: %v", err)
			}
			if ev.ID == "" || ev.Seq <= last {
				t.Fatalf("event not stamped: %+v", ev)
			}
			last = ev.Seq
		}

		recent, err := s.ListEvents(ctx, "s1", 2)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(recent) != 2 || recent[0].Type != model.EventWinnerAnnounced || recent[1].Seq != last {
			t.Fatalf("expected last two events in order, got %+v", recent)
		}
		var payload map[string]int
		if err := recent[1].Decode(&payload); err != nil || payload["i"] != 3 {
			t.Errorf("payload not preserved: %v (%v)", payload, err)
		}
		all, _ := s.ListEvents(ctx, "s1", 0)
		if len(all) != 4 {
			t.Errorf("expected 4 events, got %d", len(all))
		}
		balls, _ := s.ListEventsByType(ctx, "s1", model.EventBallDrawn)
		if len(balls) != 2 || balls[0].Seq >= balls[1].Seq {
			t.Errorf("unexpected ball events %+v", balls)
		}
	})

	t.Run("purge", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateSession(ctx, newSession("s1", "T1")); err != nil {
			t.Fatalf("create session: %v", err)
		}
		p := newPlayer("p1", "s1", "ALICE")
		p.TeamID = "t1"
		if err := s.CreateTeam(ctx, &model.Team{ID: "t1", SessionID: "s1", Name: "Red"}); err != nil {
			t.Fatalf("create team: %v", err)
		}
		if err := s.CreatePlayer(ctx, p); err != nil {
			t.Fatalf("create player: %v", err)
		}
		ev, _ := model.NewEvent("s1", model.EventGameStarted, nil)
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("append event: %v", err)
		}

		if n, err := s.PurgeTeams(ctx); err != nil || n != 1 {
			t.Fatalf("purge teams: n=%d err=%v", n, err)
		}
		if got, _ := s.GetPlayer(ctx, "p1"); got == nil || got.TeamID != "" {
			t.Errorf("expected team reference cleared, got %+v", got)
		}
		if n, err := s.PurgeRecords(ctx); err != nil || n != 1 {
			t.Fatalf("purge records: n=%d err=%v", n, err)
		}
		if n, err := s.PurgePlayers(ctx); err != nil || n != 1 {
			t.Fatalf("purge players: n=%d err=%v", n, err)
		}
		if n, err := s.PurgeSessions(ctx); err != nil || n != 1 {
			t.Fatalf("purge sessions: n=%d err=%v", n, err)
		}
		if n, _ := s.CountSessions(ctx); n != 0 {
			t.Errorf("expected no sessions, got %d", n)
		}
	})
}
