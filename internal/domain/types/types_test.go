package types_test

import (
	"testing"
	"time"

	"github.com/okian/bingonight/internal/domain/model"
	types "github.com/okian/bingonight/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewQuestionView(t *testing.T) {
	Convey("Given a question", t, func() {
		q := &model.Question{
			ID:               "q1",
			Seq:              2,
			Text:             "Capital of France?",
			Options:          model.StringList{"Paris", "Rome", "Oslo", "Bern"},
			CorrectIndex:     0,
			TimeLimitSeconds: 30,
			Points:           10,
			Status:           model.QuestionActive,
		}
		started := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
		ends := started.Add(30 * time.Second)
		s := &model.Session{ID: "s1", CurrentQuestionID: "q1", QuestionStartedAt: &started, QuestionEndsAt: &ends}

		Convey("While it runs the correct index is withheld", func() {
			v := types.NewQuestionView(q, s)
			So(v.CorrectIndex, ShouldBeNil)
			So(v.EndsAt, ShouldEqual, &ends)
			So(v.Options, ShouldResemble, q.Options)

			q.Status = model.QuestionPaused
			So(types.NewQuestionView(q, s).CorrectIndex, ShouldBeNil)
		})

		Convey("Once resolved the correct index is shown", func() {
			q.Status = model.QuestionResults
			v := types.NewQuestionView(q, s)
			So(v.CorrectIndex, ShouldNotBeNil)
			So(*v.CorrectIndex, ShouldEqual, 0)
		})

		Convey("Timing is only copied for the current question", func() {
			s.CurrentQuestionID = "other"
			v := types.NewQuestionView(q, s)
			So(v.StartedAt, ShouldBeNil)
			So(v.EndsAt, ShouldBeNil)
		})

		Convey("A nil question has no view", func() {
			So(types.NewQuestionView(nil, s), ShouldBeNil)
		})
	})
}
