package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/okian/bingonight/internal/domain/model"
)

type createSessionRequest struct {
	Code      string          `json:"code"`
	MaxRounds int             `json:"maxRounds"`
	BingoMode model.BingoMode `json:"bingoMode"`
}

type joinRequest struct {
	Nickname string `json:"nickname"`
	Pin      string `json:"pin"`
	TeamID   string `json:"teamId"`
}

type marksRequest struct {
	Cells []int `json:"cells"`
}

type answerRequest struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex *int   `json:"answerIndex"`
}

// handleCreateSession handles POST /api/sessions.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	const op = "api.createSession"
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(op, err)
	}
	sess, err := s.game.CreateSession(c.UserContext(), normalizeName(req.Code), req.MaxRounds, req.BingoMode)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// handleJoin handles POST /api/sessions/:code/join.
func (s *Server) handleJoin(c *fiber.Ctx) error {
	const op = "api.join"
	var req joinRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(op, err)
	}
	res, err := s.game.JoinOrReconnect(c.UserContext(), code(c), normalizeName(req.Nickname), req.Pin, req.TeamID)
	if err != nil {
		return err
	}
	status := fiber.StatusCreated
	if res.Reconnected {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(res)
}

// handleMarks handles POST /api/sessions/:code/players/:playerId/marks.
func (s *Server) handleMarks(c *fiber.Ctx) error {
	const op = "api.marks"
	var req marksRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(op, err)
	}
	res, err := s.game.MarkCells(c.UserContext(), code(c), c.Params("playerId"), req.Cells)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// handleAnswer handles POST /api/sessions/:code/players/:playerId/answers.
func (s *Server) handleAnswer(c *fiber.Ctx) error {
	const op = "api.answer"
	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(op, err)
	}
	if req.AnswerIndex == nil {
		return badRequest(op, errMissing("answerIndex"))
	}
	res, err := s.game.SubmitAnswer(c.UserContext(), code(c), c.Params("playerId"), req.QuestionID, *req.AnswerIndex)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// handleState handles GET /api/sessions/:code/state.
func (s *Server) handleState(c *fiber.Ctx) error {
	state, err := s.game.GetGameState(c.UserContext(), code(c), c.Query("playerId"))
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// handleWinners handles GET /api/sessions/:code/winners.
func (s *Server) handleWinners(c *fiber.Ctx) error {
	events, err := s.game.GetWinnerHistory(c.UserContext(), code(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"winners": events})
}

// handleQuestions handles GET /api/sessions/:code/questions.
func (s *Server) handleQuestions(c *fiber.Ctx) error {
	qs, err := s.game.Questions(c.UserContext(), code(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"questions": qs})
}

// handleQuestionResults handles GET /api/sessions/:code/questions/:questionId/results.
func (s *Server) handleQuestionResults(c *fiber.Ctx) error {
	res, err := s.game.QuestionResults(c.UserContext(), code(c), c.Params("questionId"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// code returns the normalized :code path parameter.
func code(c *fiber.Ctx) string {
	return normalizeName(c.Params("code"))
}
