package service

import (
	"context"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/trivia"
)

// Command is a host action on a session. The set is closed: only the types
// in this package implement it.
type Command interface {
	command()
}

// Host commands.
type (
	StartGameCommand struct{}
	PauseGameCommand struct{}
	EndGameCommand   struct{}

	SwitchModeCommand struct {
		Mode model.GameMode `json:"mode"`
	}

	DrawBallCommand struct{}
	EndRoundCommand struct{}

	KickPlayerCommand struct {
		PlayerID string `json:"playerId"`
	}

	AnnounceWinnerCommand struct {
		PlayerID string `json:"playerId"`
	}

	AnnounceWinnerManualCommand struct {
		PlayerID string      `json:"playerId"`
		WinType  model.Prize `json:"winType"`
	}

	CreateTeamCommand struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	UpdateTeamCommand struct {
		TeamID string `json:"teamId"`
		Name   string `json:"name"`
		Color  string `json:"color"`
	}

	DeleteTeamCommand struct {
		TeamID string `json:"teamId"`
	}

	AddQuestionCommand struct {
		trivia.QuestionInput
	}

	UpdateQuestionCommand struct {
		QuestionID string `json:"questionId"`
		trivia.QuestionInput
	}

	DeleteQuestionCommand struct {
		QuestionID string `json:"questionId"`
	}

	StartQuestionCommand struct {
		QuestionID string `json:"questionId"`
	}

	PauseResumeQuestionCommand struct{}
	EndQuestionCommand         struct{}
	NextQuestionCommand        struct{}
	EndQuizCommand             struct{}
)

func (StartGameCommand) command()            {}
func (PauseGameCommand) command()            {}
func (EndGameCommand) command()              {}
func (SwitchModeCommand) command()           {}
func (DrawBallCommand) command()             {}
func (EndRoundCommand) command()             {}
func (KickPlayerCommand) command()           {}
func (AnnounceWinnerCommand) command()       {}
func (AnnounceWinnerManualCommand) command() {}
func (CreateTeamCommand) command()           {}
func (UpdateTeamCommand) command()           {}
func (DeleteTeamCommand) command()           {}
func (AddQuestionCommand) command()          {}
func (UpdateQuestionCommand) command()       {}
func (DeleteQuestionCommand) command()       {}
func (StartQuestionCommand) command()        {}
func (PauseResumeQuestionCommand) command()  {}
func (EndQuestionCommand) command()          {}
func (NextQuestionCommand) command()         {}
func (EndQuizCommand) command()              {}

// Execute runs a host command against the session with code and returns the
// operation's result.
func (s *Service) Execute(ctx context.Context, code string, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case StartGameCommand:
		return s.StartGame(ctx, code)
	case PauseGameCommand:
		return s.PauseGame(ctx, code)
	case EndGameCommand:
		return s.EndGame(ctx, code)
	case SwitchModeCommand:
		return s.SwitchMode(ctx, code, c.Mode)
	case DrawBallCommand:
		return s.DrawBall(ctx, code)
	case EndRoundCommand:
		return s.EndRound(ctx, code)
	case KickPlayerCommand:
		return s.KickPlayer(ctx, code, c.PlayerID)
	case AnnounceWinnerCommand:
		return s.AnnounceWinner(ctx, code, c.PlayerID)
	case AnnounceWinnerManualCommand:
		return s.AnnounceWinnerManual(ctx, code, c.PlayerID, c.WinType)
	case CreateTeamCommand:
		return s.CreateTeam(ctx, code, c.Name, c.Color)
	case UpdateTeamCommand:
		return s.UpdateTeam(ctx, code, c.TeamID, c.Name, c.Color)
	case DeleteTeamCommand:
		return nil, s.DeleteTeam(ctx, code, c.TeamID)
	case AddQuestionCommand:
		return s.AddQuestion(ctx, code, c.QuestionInput)
	case UpdateQuestionCommand:
		return s.UpdateQuestion(ctx, code, c.QuestionID, c.QuestionInput)
	case DeleteQuestionCommand:
		return nil, s.DeleteQuestion(ctx, code, c.QuestionID)
	case StartQuestionCommand:
		return s.StartQuestion(ctx, code, c.QuestionID)
	case PauseResumeQuestionCommand:
		st, err := s.PauseOrResumeQuestion(ctx, code)
		if err != nil {
			return nil, err
		}
		return map[string]model.QuestionStatus{"status": st}, nil
	case EndQuestionCommand:
		return s.EndQuestion(ctx, code)
	case NextQuestionCommand:
		return s.NextQuestion(ctx, code)
	case EndQuizCommand:
		return nil, s.EndQuiz(ctx, code)
	default:
		return nil, errs.Wrap("service.Execute", errs.Invalidf("unsupported command %T", cmd))
	}
}
