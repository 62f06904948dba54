// Package api exposes the game service over HTTP with fiber.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/internal/adapters/http/swagger"
	service "github.com/okian/bingonight/internal/app"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/prize"
	"github.com/okian/bingonight/internal/domain/trivia"
	"github.com/okian/bingonight/internal/domain/types"
	"github.com/okian/bingonight/pkg/logger"
)

// Game is the service surface the handlers call.
type Game interface {
	CreateSession(ctx context.Context, code string, maxRounds int, mode model.BingoMode) (*model.Session, error)
	JoinOrReconnect(ctx context.Context, code, nickname, pin, teamID string) (types.JoinResult, error)
	MarkCells(ctx context.Context, code, playerID string, cells []int) (prize.MarkResult, error)
	SubmitAnswer(ctx context.Context, code, playerID, questionID string, index int) (trivia.AnswerResult, error)
	GetGameState(ctx context.Context, code, playerID string) (types.GameState, error)
	GetWinnerHistory(ctx context.Context, code string) ([]*model.Event, error)
	Questions(ctx context.Context, code string) ([]*model.Question, error)
	QuestionResults(ctx context.Context, code, questionID string) (model.ResultsPayload, error)
	Execute(ctx context.Context, code string, cmd service.Command) (any, error)
	Stats(ctx context.Context) (types.Stats, error)

	PurgeSessions(ctx context.Context) (int64, error)
	PurgePlayers(ctx context.Context) (int64, error)
	PurgeRecords(ctx context.Context) (int64, error)
	PurgeTeams(ctx context.Context) (int64, error)
}

const defaultTokenTTL = 12 * time.Hour

// Server wires HTTP routes for the game API.
type Server struct {
	game     Game
	secret   []byte
	tokenTTL time.Duration
	clock    clockwork.Clock
	logger   logger.Logger
}

// NewServer creates a server for game. A host secret is required.
func NewServer(game Game, opts ...Option) (*Server, error) {
	s := &Server{
		game:     game,
		tokenTTL: defaultTokenTTL,
		clock:    clockwork.NewRealClock(),
		logger:   logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	return s, nil
}

// App builds a fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bingonight",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.metricsMiddleware)
	s.Register(app)
	return app
}

// Register attaches all routes to app.
func (s *Server) Register(app fiber.Router) {
	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", metricsHandler())
	swagger.Register(app)

	api := app.Group("/api")
	api.Post("/host/login", s.handleLogin)

	sessions := api.Group("/sessions")
	sessions.Post("/", s.requireHost, s.handleCreateSession)
	sessions.Post("/:code/commands", s.requireHost, s.handleCommand)
	sessions.Get("/:code/questions", s.requireHost, s.handleQuestions)
	sessions.Get("/:code/questions/:questionId/results", s.requireHost, s.handleQuestionResults)
	sessions.Post("/:code/join", s.handleJoin)
	sessions.Post("/:code/players/:playerId/marks", s.handleMarks)
	sessions.Post("/:code/players/:playerId/answers", s.handleAnswer)
	sessions.Get("/:code/state", s.handleState)
	sessions.Get("/:code/winners", s.handleWinners)

	admin := api.Group("/admin", s.requireHost)
	admin.Get("/stats", s.handleStats)
	admin.Delete("/sessions", s.purge("sessions", s.game.PurgeSessions))
	admin.Delete("/players", s.purge("players", s.game.PurgePlayers))
	admin.Delete("/records", s.purge("records", s.game.PurgeRecords))
	admin.Delete("/teams", s.purge("teams", s.game.PurgeTeams))
}

// handleError renders err as a {code, message} body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed",
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.Error(err),
		)
	}
	return c.Status(status).JSON(errorResponse{Code: code, Message: err.Error()})
}
