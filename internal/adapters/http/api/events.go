package api

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	service "github.com/okian/bingonight/internal/app"
)

// commandEnvelope carries the action name; the remaining fields of the body
// belong to the command itself.
type commandEnvelope struct {
	Action string `json:"action"`
}

type commandDecoder func(body []byte) (service.Command, error)

// decodeAs decodes body into the command type T.
func decodeAs[T service.Command](body []byte) (service.Command, error) {
	var cmd T
	if err := json.Unmarshal(body, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

var commandDecoders = map[string]commandDecoder{
	"start_game":             decodeAs[service.StartGameCommand],
	"pause_game":             decodeAs[service.PauseGameCommand],
	"end_game":               decodeAs[service.EndGameCommand],
	"switch_mode":            decodeAs[service.SwitchModeCommand],
	"draw_ball":              decodeAs[service.DrawBallCommand],
	"end_round":              decodeAs[service.EndRoundCommand],
	"kick_player":            decodeAs[service.KickPlayerCommand],
	"announce_winner":        decodeAs[service.AnnounceWinnerCommand],
	"announce_winner_manual": decodeAs[service.AnnounceWinnerManualCommand],
	"create_team":            decodeAs[service.CreateTeamCommand],
	"update_team":            decodeAs[service.UpdateTeamCommand],
	"delete_team":            decodeAs[service.DeleteTeamCommand],
	"add_question":           decodeAs[service.AddQuestionCommand],
	"update_question":        decodeAs[service.UpdateQuestionCommand],
	"delete_question":        decodeAs[service.DeleteQuestionCommand],
	"start_question":         decodeAs[service.StartQuestionCommand],
	"pause_resume_question":  decodeAs[service.PauseResumeQuestionCommand],
	"end_question":           decodeAs[service.EndQuestionCommand],
	"next_question":          decodeAs[service.NextQuestionCommand],
	"end_quiz":               decodeAs[service.EndQuizCommand],
}

// decodeCommand turns a {action, ...} body into a service command.
func decodeCommand(body []byte) (service.Command, error) {
	var env commandEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Action == "" {
		return nil, errMissing("action")
	}
	decode, ok := commandDecoders[env.Action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", env.Action)
	}
	return decode(body)
}

// handleCommand handles POST /api/sessions/:code/commands.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	const op = "api.command"
	cmd, err := decodeCommand(c.Body())
	if err != nil {
		return badRequest(op, err)
	}
	out, err := s.game.Execute(c.UserContext(), code(c), cmd)
	if err != nil {
		return err
	}
	if out == nil {
		return c.JSON(fiber.Map{"ok": true})
	}
	return c.JSON(out)
}
