package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OpenDB opens a gorm connection for driver. Unique violations are
// translated into gorm.ErrDuplicatedKey and statements are logged through
// the configured logger.
func OpenDB(driver, dsn string, opts ...Option) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newSQLLogger(buildOptions(opts).logger.Named("sql")),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// Open builds the Store selected by driver.
func Open(driver, dsn string, opts ...Option) (Store, error) {
	if driver == "" || driver == DriverMemory {
		return NewMemoryStore(opts...), nil
	}
	db, err := OpenDB(driver, dsn, opts...)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db, opts...)
}

// GormStore is a Store backed by a SQL database through gorm.
type GormStore struct {
	db  *gorm.DB
	o   options
	seq atomic.Int64
}

var _ Store = (*GormStore)(nil)

// NewGormStore migrates the schema and returns a store over db.
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	s := &GormStore{db: db, o: buildOptions(opts)}
	if err := db.AutoMigrate(
		&model.Session{},
		&model.Player{},
		&model.Team{},
		&model.Question{},
		&model.Answer{},
		&model.Event{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	var last int64
	if err := db.Model(&model.Event{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("load event sequence: %w", err)
	}
	s.seq.Store(last)
	s.o.logger.Info(context.Background(), "gorm store ready",
		logger.String("dialect", db.Dialector.Name()),
		logger.Int64("eventSeq", last),
	)
	return s, nil
}

// translate maps gorm errors to store sentinels.
func translate(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// Close implements Store.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) with(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// CreateSession implements SessionStore.
func (s *GormStore) CreateSession(ctx context.Context, sess *model.Session) error {
	defer observe("create_session", time.Now())
	return translate("create session "+sess.Code, s.with(ctx).Create(sess).Error)
}

// GetSession implements SessionStore.
func (s *GormStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	defer observe("get_session", time.Now())
	var out model.Session
	if err := s.with(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate("session "+id, err)
	}
	return &out, nil
}

// GetSessionByCode implements SessionStore.
func (s *GormStore) GetSessionByCode(ctx context.Context, code string) (*model.Session, error) {
	defer observe("get_session", time.Now())
	var out model.Session
	if err := s.with(ctx).First(&out, "code = ?", code).Error; err != nil {
		return nil, translate("session code "+code, err)
	}
	return &out, nil
}

// SaveSession implements SessionStore.
func (s *GormStore) SaveSession(ctx context.Context, sess *model.Session) error {
	defer observe("save_session", time.Now())
	res := s.with(ctx).Model(sess).Select("*").Updates(sess)
	if res.Error != nil {
		return translate("save session "+sess.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("save session "+sess.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// ClaimPrize implements SessionStore with a conditional update.
func (s *GormStore) ClaimPrize(ctx context.Context, sessionID string, c model.Claim) (bool, error) {
	defer observe("claim_prize", time.Now())
	var flag string
	updates := map[string]any{"updated_at": s.o.clock.Now()}
	switch c.Prize {
	case model.PrizeLine:
		flag = "line_prize_claimed"
		updates[flag] = true
		updates["line_winner_id"] = c.PlayerID
	case model.PrizeFullCard:
		flag = "full_card_prize_claimed"
		updates[flag] = true
		updates["full_card_winner_id"] = c.PlayerID
		updates["winner_nickname"] = c.Nickname
		updates["status"] = model.StatusWinnerAnnounced
	default:
		return false, fmt.Errorf("claim %q: %w", c.Prize, ErrConflict)
	}
	res := s.with(ctx).Model(&model.Session{}).
		Where("id = ? AND "+flag+" = ?", sessionID, false).
		Updates(updates)
	if res.Error != nil {
		return false, translate("claim prize", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return false, err
	}
	return false, nil
}

// CountSessions implements SessionStore.
func (s *GormStore) CountSessions(ctx context.Context) (int, error) {
	var n int64
	if err := s.with(ctx).Model(&model.Session{}).Count(&n).Error; err != nil {
		return 0, translate("count sessions", err)
	}
	return int(n), nil
}

// ListSessions implements SessionStore.
func (s *GormStore) ListSessions(ctx context.Context) ([]*model.Session, error) {
	var out []*model.Session
	if err := s.with(ctx).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, translate("list sessions", err)
	}
	return out, nil
}

// CreatePlayer implements PlayerStore.
func (s *GormStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	defer observe("create_player", time.Now())
	return translate("create player "+p.Nickname, s.with(ctx).Create(p).Error)
}

// GetPlayer implements PlayerStore.
func (s *GormStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var out model.Player
	if err := s.with(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate("player "+id, err)
	}
	return &out, nil
}

// GetPlayerByNickname implements PlayerStore.
func (s *GormStore) GetPlayerByNickname(ctx context.Context, sessionID, nickname string) (*model.Player, error) {
	var out model.Player
	err := s.with(ctx).First(&out, "session_id = ? AND nickname = ?", sessionID, nickname).Error
	if err != nil {
		return nil, translate("nickname "+nickname, err)
	}
	return &out, nil
}

// SavePlayer implements PlayerStore.
func (s *GormStore) SavePlayer(ctx context.Context, p *model.Player) error {
	defer observe("save_player", time.Now())
	res := s.with(ctx).Model(p).Select("*").Updates(p)
	if res.Error != nil {
		return translate("save player "+p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("save player "+p.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// ListPlayers implements PlayerStore.
func (s *GormStore) ListPlayers(ctx context.Context, sessionID string) ([]*model.Player, error) {
	var out []*model.Player
	if err := s.with(ctx).Where("session_id = ?", sessionID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, translate("list players", err)
	}
	return out, nil
}

func (s *GormStore) teamNameTaken(ctx context.Context, t *model.Team) (bool, error) {
	var n int64
	err := s.with(ctx).Model(&model.Team{}).
		Where("session_id = ? AND LOWER(name) = LOWER(?) AND id <> ?", t.SessionID, t.Name, t.ID).
		Count(&n).Error
	return n > 0, err
}

// CreateTeam implements TeamStore.
func (s *GormStore) CreateTeam(ctx context.Context, t *model.Team) error {
	taken, err := s.teamNameTaken(ctx, t)
	if err != nil {
		return translate("create team", err)
	}
	if taken {
		return translate("create team "+t.Name, gorm.ErrDuplicatedKey)
	}
	return translate("create team "+t.Name, s.with(ctx).Create(t).Error)
}

// GetTeam implements TeamStore.
func (s *GormStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var out model.Team
	if err := s.with(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate("team "+id, err)
	}
	return &out, nil
}

// SaveTeam implements TeamStore.
func (s *GormStore) SaveTeam(ctx context.Context, t *model.Team) error {
	taken, err := s.teamNameTaken(ctx, t)
	if err != nil {
		return translate("save team", err)
	}
	if taken {
		return translate("save team "+t.Name, gorm.ErrDuplicatedKey)
	}
	res := s.with(ctx).Model(t).Select("*").Updates(t)
	if res.Error != nil {
		return translate("save team "+t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("save team "+t.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteTeam implements TeamStore.
func (s *GormStore) DeleteTeam(ctx context.Context, id string) error {
	return s.with(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Team{}, "id = ?", id)
		if res.Error != nil {
			return translate("delete team "+id, res.Error)
		}
		if res.RowsAffected == 0 {
			return translate("delete team "+id, gorm.ErrRecordNotFound)
		}
		err := tx.Model(&model.Player{}).Where("team_id = ?", id).Update("team_id", "").Error
		return translate("clear team "+id, err)
	})
}

// ListTeams implements TeamStore.
func (s *GormStore) ListTeams(ctx context.Context, sessionID string) ([]*model.Team, error) {
	var out []*model.Team
	if err := s.with(ctx).Where("session_id = ?", sessionID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, translate("list teams", err)
	}
	return out, nil
}

// CreateQuestion implements QuestionStore.
func (s *GormStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	return translate("create question", s.with(ctx).Create(q).Error)
}

// GetQuestion implements QuestionStore.
func (s *GormStore) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	var out model.Question
	if err := s.with(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate("question "+id, err)
	}
	return &out, nil
}

// SaveQuestion implements QuestionStore.
func (s *GormStore) SaveQuestion(ctx context.Context, q *model.Question) error {
	defer observe("save_question", time.Now())
	res := s.with(ctx).Model(q).Select("*").Updates(q)
	if res.Error != nil {
		return translate("save question "+q.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("save question "+q.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteQuestion implements QuestionStore.
func (s *GormStore) DeleteQuestion(ctx context.Context, id string) error {
	return s.with(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return translate("delete answers", err)
		}
		res := tx.Delete(&model.Question{}, "id = ?", id)
		if res.Error != nil {
			return translate("delete question "+id, res.Error)
		}
		if res.RowsAffected == 0 {
			return translate("delete question "+id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// ListQuestions implements QuestionStore.
func (s *GormStore) ListQuestions(ctx context.Context, sessionID string) ([]*model.Question, error) {
	var out []*model.Question
	if err := s.with(ctx).Where("session_id = ?", sessionID).Order("seq, id").Find(&out).Error; err != nil {
		return nil, translate("list questions", err)
	}
	return out, nil
}

// CreateAnswer implements QuestionStore.
func (s *GormStore) CreateAnswer(ctx context.Context, a *model.Answer) error {
	defer observe("create_answer", time.Now())
	return translate("create answer", s.with(ctx).Create(a).Error)
}

// ListAnswers implements QuestionStore.
func (s *GormStore) ListAnswers(ctx context.Context, questionID string) ([]*model.Answer, error) {
	var out []*model.Answer
	if err := s.with(ctx).Where("question_id = ?", questionID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, translate("list answers", err)
	}
	return out, nil
}

// AppendEvent implements EventStore. Seq comes from an in-process counter
// seeded from the table, so a single process owns the log.
func (s *GormStore) AppendEvent(ctx context.Context, e *model.Event) error {
	defer observe("append_event", time.Now())
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Seq = s.seq.Add(1)
	e.CreatedAt = s.o.clock.Now()
	return translate("append event", s.with(ctx).Create(e).Error)
}

// ListEvents implements EventStore.
func (s *GormStore) ListEvents(ctx context.Context, sessionID string, limit int) ([]*model.Event, error) {
	var out []*model.Event
	q := s.with(ctx).Where("session_id = ?", sessionID)
	if limit > 0 {
		q = q.Order("seq desc").Limit(limit)
	} else {
		q = q.Order("seq")
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translate("list events", err)
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// ListEventsByType implements EventStore.
func (s *GormStore) ListEventsByType(ctx context.Context, sessionID string, typ model.EventType) ([]*model.Event, error) {
	var out []*model.Event
	err := s.with(ctx).Where("session_id = ? AND type = ?", sessionID, typ).Order("seq").Find(&out).Error
	if err != nil {
		return nil, translate("list events", err)
	}
	return out, nil
}

func (s *GormStore) global(ctx context.Context) *gorm.DB {
	return s.with(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
}

// PurgeSessions implements Purger.
func (s *GormStore) PurgeSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.global(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.Answer{}, &model.Event{}, &model.Question{}, &model.Player{}, &model.Team{}} {
			if err := tx.Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Session{})
		n = res.RowsAffected
		return res.Error
	})
	return n, translate("purge sessions", err)
}

// PurgePlayers implements Purger.
func (s *GormStore) PurgePlayers(ctx context.Context) (int64, error) {
	var n int64
	err := s.global(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Player{})
		n = res.RowsAffected
		return res.Error
	})
	return n, translate("purge players", err)
}

// PurgeRecords implements Purger.
func (s *GormStore) PurgeRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.global(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Answer{})
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		res = tx.Delete(&model.Event{})
		n += res.RowsAffected
		return res.Error
	})
	return n, translate("purge records", err)
}

// PurgeTeams implements Purger.
func (s *GormStore) PurgeTeams(ctx context.Context) (int64, error) {
	var n int64
	err := s.global(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Player{}).Where("team_id <> ?", "").Update("team_id", "").Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Team{})
		n = res.RowsAffected
		return res.Error
	})
	return n, translate("purge teams", err)
}
