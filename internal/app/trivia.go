package service

import (
	"context"

	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/trivia"
)

// AddQuestion appends a question to the session's quiz.
func (s *Service) AddQuestion(ctx context.Context, code string, in trivia.QuestionInput) (*model.Question, error) {
	return locked(ctx, s, "service.AddQuestion", code, func(sess *model.Session) (*model.Question, error) {
		return s.questions.AddQuestion(ctx, sess, in)
	})
}

// UpdateQuestion replaces a question that is not running.
func (s *Service) UpdateQuestion(ctx context.Context, code, questionID string, in trivia.QuestionInput) (*model.Question, error) {
	return locked(ctx, s, "service.UpdateQuestion", code, func(sess *model.Session) (*model.Question, error) {
		return s.questions.UpdateQuestion(ctx, sess, questionID, in)
	})
}

// DeleteQuestion removes a question that is not running, with its answers.
func (s *Service) DeleteQuestion(ctx context.Context, code, questionID string) error {
	_, err := locked(ctx, s, "service.DeleteQuestion", code, func(sess *model.Session) (struct{}, error) {
		return struct{}{}, s.questions.DeleteQuestion(ctx, sess, questionID)
	})
	return err
}

// Questions lists the session's questions in creation order.
func (s *Service) Questions(ctx context.Context, code string) ([]*model.Question, error) {
	sess, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.questions.Questions(ctx, sess)
}

// StartQuestion activates a question and arms its expiry.
func (s *Service) StartQuestion(ctx context.Context, code, questionID string) (*model.Question, error) {
	return locked(ctx, s, "service.StartQuestion", code, func(sess *model.Session) (*model.Question, error) {
		return s.questions.Start(ctx, sess, questionID)
	})
}

// PauseOrResumeQuestion toggles the current question.
func (s *Service) PauseOrResumeQuestion(ctx context.Context, code string) (model.QuestionStatus, error) {
	return locked(ctx, s, "service.PauseOrResumeQuestion", code, func(sess *model.Session) (model.QuestionStatus, error) {
		return s.questions.PauseOrResume(ctx, sess)
	})
}

// EndQuestion resolves the current question and returns its results.
func (s *Service) EndQuestion(ctx context.Context, code string) (model.ResultsPayload, error) {
	return locked(ctx, s, "service.EndQuestion", code, func(sess *model.Session) (model.ResultsPayload, error) {
		return s.questions.End(ctx, sess)
	})
}

// NextQuestion starts the first question not asked yet.
func (s *Service) NextQuestion(ctx context.Context, code string) (*model.Question, error) {
	return locked(ctx, s, "service.NextQuestion", code, func(sess *model.Session) (*model.Question, error) {
		return s.questions.Next(ctx, sess)
	})
}

// EndQuiz ends every question of the session.
func (s *Service) EndQuiz(ctx context.Context, code string) error {
	_, err := locked(ctx, s, "service.EndQuiz", code, func(sess *model.Session) (struct{}, error) {
		return struct{}{}, s.questions.EndQuiz(ctx, sess)
	})
	return err
}

// SubmitAnswer records the player's answer to the current question.
func (s *Service) SubmitAnswer(ctx context.Context, code, playerID, questionID string, index int) (trivia.AnswerResult, error) {
	return locked(ctx, s, "service.SubmitAnswer", code, func(sess *model.Session) (trivia.AnswerResult, error) {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return trivia.AnswerResult{}, err
		}
		return s.questions.SubmitAnswer(ctx, sess, p, questionID, index)
	})
}

// QuestionResults returns the answer snapshot of a question.
func (s *Service) QuestionResults(ctx context.Context, code, questionID string) (model.ResultsPayload, error) {
	sess, err := s.sessionByCode(ctx, code)
	if err != nil {
		return model.ResultsPayload{}, err
	}
	return s.questions.Results(ctx, sess, questionID)
}
