package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/internal/adapters/http/api"
	repository "github.com/okian/bingonight/internal/adapters/repository"
	service "github.com/okian/bingonight/internal/app"
	"github.com/okian/bingonight/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const hostSecret = "s3cret-host"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// nopTimers never fires.
type nopTimers struct{}

func (nopTimers) Schedule(string, string, time.Duration, func(context.Context) error) error {
	return nil
}
func (nopTimers) Cancel(string, string) bool  { return false }
func (nopTimers) CancelSession(string) int    { return 0 }
func (nopTimers) CancelAll() int              { return 0 }
func (nopTimers) Pending() int                { return 0 }

type fixture struct {
	app   *fiber.App
	clock *clockwork.FakeClock
}

func newFixture() *fixture {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	store := repository.NewMemoryStore(repository.WithClock(clock))
	svc := service.New(store, nopTimers{}, service.WithClock(clock))
	srv, err := api.NewServer(svc,
		api.WithHostSecret(hostSecret),
		api.WithClock(clock),
		api.WithTokenTTL(time.Hour),
	)
	if err != nil {
		panic(err)
	}
	return &fixture{app: srv.App(), clock: clock}
}

// do sends a request and decodes the JSON response body into a map.
func (f *fixture) do(method, path string, body any, token string) (int, map[string]any) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (f *fixture) login() string {
	status, body := f.do(http.MethodPost, "/api/host/login", map[string]string{"secret": hostSecret}, "")
	if status != http.StatusOK {
		panic("login failed")
	}
	return body["token"].(string)
}

func TestNewServer(t *testing.T) {
	Convey("A server needs a host secret", t, func() {
		_, err := api.NewServer(nil)
		So(err, ShouldEqual, api.ErrMissingSecret)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given a running API", t, func() {
		f := newFixture()

		Convey("Health reports ok", func() {
			status, body := f.do(http.MethodGet, "/healthz", nil, "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("Metrics are served in Prometheus format", func() {
			f.do(http.MethodGet, "/healthz", nil, "")
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			resp, err := f.app.Test(req, -1)
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			raw, _ := io.ReadAll(resp.Body)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Unknown routes are 404 with an error body", func() {
			status, body := f.do(http.MethodGet, "/nope", nil, "")
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})
	})
}

func TestHostAuth(t *testing.T) {
	Convey("Given a running API", t, func() {
		f := newFixture()

		Convey("A wrong secret is rejected", func() {
			status, body := f.do(http.MethodPost, "/api/host/login", map[string]string{"secret": "guess"}, "")
			So(status, ShouldEqual, http.StatusUnauthorized)
			So(body["code"], ShouldEqual, "invalid_credentials")
		})

		Convey("Host routes need a token", func() {
			status, body := f.do(http.MethodPost, "/api/sessions", map[string]any{"code": "T1", "maxRounds": 3}, "")
			So(status, ShouldEqual, http.StatusUnauthorized)
			So(body["code"], ShouldEqual, "unauthorized")

			status, _ = f.do(http.MethodDelete, "/api/admin/sessions", nil, "not-a-token")
			So(status, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("A token stops working once it expires", func() {
			token := f.login()
			status, _ := f.do(http.MethodGet, "/api/admin/stats", nil, token)
			So(status, ShouldEqual, http.StatusOK)

			f.clock.Advance(2 * time.Hour)
			status, body := f.do(http.MethodGet, "/api/admin/stats", nil, token)
			So(status, ShouldEqual, http.StatusUnauthorized)
			So(body["message"], ShouldContainSubstring, "expired")
		})
	})
}

func TestGameRoutes(t *testing.T) {
	Convey("Given a host with a fresh session", t, func() {
		f := newFixture()
		token := f.login()

		status, body := f.do(http.MethodPost, "/api/sessions", map[string]any{"code": " party ", "maxRounds": 3}, token)
		So(status, ShouldEqual, http.StatusCreated)
		So(body["code"], ShouldEqual, "PARTY")
		So(body["status"], ShouldEqual, "waiting")

		Convey("The same code cannot be reused", func() {
			status, body := f.do(http.MethodPost, "/api/sessions", map[string]any{"code": "Party", "maxRounds": 3}, token)
			So(status, ShouldEqual, http.StatusConflict)
			So(body["code"], ShouldEqual, "invalid_state")
		})

		Convey("A bad round count is invalid input", func() {
			status, body := f.do(http.MethodPost, "/api/sessions", map[string]any{"code": "other", "maxRounds": 0}, token)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "invalid_input")
		})

		Convey("Players join with normalized nicknames and reconnect with their pin", func() {
			status, body := f.do(http.MethodPost, "/api/sessions/party/join", map[string]string{"nickname": "alice", "pin": "1234"}, "")
			So(status, ShouldEqual, http.StatusCreated)
			player := body["player"].(map[string]any)
			So(player["nickname"], ShouldEqual, "ALICE")
			So(player, ShouldNotContainKey, "pin")
			So(len(player["bingoCard"].([]any)), ShouldEqual, 25)

			status, body = f.do(http.MethodPost, "/api/sessions/PARTY/join", map[string]string{"nickname": "Alice ", "pin": "1234"}, "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["reconnected"], ShouldBeTrue)

			status, body = f.do(http.MethodPost, "/api/sessions/PARTY/join", map[string]string{"nickname": "ALICE", "pin": "9999"}, "")
			So(status, ShouldEqual, http.StatusUnauthorized)
			So(body["code"], ShouldEqual, "invalid_credentials")

			playerID := player["id"].(string)

			Convey("The state includes the player", func() {
				status, body := f.do(http.MethodGet, "/api/sessions/party/state?playerId="+playerID, nil, "")
				So(status, ShouldEqual, http.StatusOK)
				So(body["player"].(map[string]any)["id"], ShouldEqual, playerID)
				So(len(body["players"].([]any)), ShouldEqual, 1)
			})

			Convey("The free cell can be marked", func() {
				status, body := f.do(http.MethodPost, "/api/sessions/party/players/"+playerID+"/marks", map[string]any{"cells": []int{12}}, "")
				So(status, ShouldEqual, http.StatusOK)
				So(body["hasLine"], ShouldBeFalse)
			})

			Convey("An answer without an index is a bad request", func() {
				status, body := f.do(http.MethodPost, "/api/sessions/party/players/"+playerID+"/answers", map[string]any{"questionId": "q"}, "")
				So(status, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("Commands drive the game", func() {
			status, body := f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "draw_ball"}, token)
			So(status, ShouldEqual, http.StatusConflict)
			So(body["code"], ShouldEqual, "invalid_state")

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "start_game"}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "active")

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "draw_ball"}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["number"], ShouldBeBetweenOrEqual, 1, 75)

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]any{
				"action":  "add_question",
				"text":    "Capital of France?",
				"options": []string{"Paris", "Lyon", "Nice", "Lille"},
			}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["text"], ShouldEqual, "Capital of France?")
			questionID := body["id"].(string)

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "start_question", "questionId": questionID}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "active")

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "pause_resume_question"}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "paused")

			status, body = f.do(http.MethodGet, "/api/sessions/party/questions", nil, token)
			So(status, ShouldEqual, http.StatusOK)
			So(len(body["questions"].([]any)), ShouldEqual, 1)

			status, body = f.do(http.MethodPost, "/api/sessions/party/commands", map[string]string{"action": "end_quiz"}, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["ok"], ShouldBeTrue)
		})

		Convey("Malformed commands are bad requests", func() {
			for _, payload := range []map[string]string{{}, {"action": "fly"}} {
				status, body := f.do(http.MethodPost, "/api/sessions/party/commands", payload, token)
				So(status, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("Unknown sessions are not found", func() {
			status, body := f.do(http.MethodGet, "/api/sessions/nope/state", nil, "")
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")

			status, _ = f.do(http.MethodGet, "/api/sessions/nope/winners", nil, "")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("Winners start empty", func() {
			status, body := f.do(http.MethodGet, "/api/sessions/party/winners", nil, "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["winners"], ShouldBeEmpty)
		})

		Convey("Admin purges report what they removed", func() {
			status, body := f.do(http.MethodDelete, "/api/admin/sessions", nil, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["deleted"], ShouldEqual, float64(1))

			status, body = f.do(http.MethodGet, "/api/admin/stats", nil, token)
			So(status, ShouldEqual, http.StatusOK)
			So(body["sessions"], ShouldEqual, float64(0))
		})
	})
}

func TestBodyParsing(t *testing.T) {
	Convey("A body that is not JSON is rejected", t, func() {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPost, "/api/host/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := f.app.Test(req, -1)
		So(err, ShouldBeNil)
		_ = resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
	})
}
