package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/metrics"
)

// MemoryStore is an in-process Store. A single RWMutex guards all maps and
// every value crossing the boundary is cloned.
type MemoryStore struct {
	mu sync.RWMutex
	o  options

	sessions  map[string]*model.Session
	codes     map[string]string // code -> session id
	players   map[string]*model.Player
	teams     map[string]*model.Team
	questions map[string]*model.Question
	answers   map[string]*model.Answer
	events    map[string][]*model.Event // session id -> events in seq order
	seq       int64

	// inserted holds the insertion rank of every record id.
	inserted map[string]int64
	rank     int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{o: buildOptions(opts)}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.sessions = make(map[string]*model.Session)
	s.codes = make(map[string]string)
	s.players = make(map[string]*model.Player)
	s.teams = make(map[string]*model.Team)
	s.questions = make(map[string]*model.Question)
	s.answers = make(map[string]*model.Answer)
	s.events = make(map[string][]*model.Event)
	s.inserted = make(map[string]int64)
}

// stamp records id's insertion rank. Callers hold s.mu.
func (s *MemoryStore) stamp(id string) {
	s.rank++
	s.inserted[id] = s.rank
}

// byInsertion sorts records in insertion order. Callers hold s.mu.
func byInsertion[T any](s *MemoryStore, out []T, id func(T) string) {
	sort.Slice(out, func(i, j int) bool {
		return s.inserted[id(out[i])] < s.inserted[id(out[j])]
	})
}

// observe records the latency of op.
func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// CreateSession implements SessionStore.
func (s *MemoryStore) CreateSession(_ context.Context, sess *model.Session) error {
	defer observe("create_session", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[sess.Code]; ok {
		return fmt.Errorf("session code %q: %w", sess.Code, ErrConflict)
	}
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, ErrConflict)
	}
	now := s.o.clock.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	s.sessions[sess.ID] = sess.Clone()
	s.codes[sess.Code] = sess.ID
	s.stamp(sess.ID)
	return nil
}

// GetSession implements SessionStore.
func (s *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	defer observe("get_session", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess.Clone(), nil
}

// GetSessionByCode implements SessionStore.
func (s *MemoryStore) GetSessionByCode(_ context.Context, code string) (*model.Session, error) {
	defer observe("get_session", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("session code %q: %w", code, ErrNotFound)
	}
	return s.sessions[id].Clone(), nil
}

// SaveSession implements SessionStore.
func (s *MemoryStore) SaveSession(_ context.Context, sess *model.Session) error {
	defer observe("save_session", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.sessions[sess.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
	}
	if old.Code != sess.Code {
		if _, taken := s.codes[sess.Code]; taken {
			return fmt.Errorf("session code %q: %w", sess.Code, ErrConflict)
		}
		delete(s.codes, old.Code)
		s.codes[sess.Code] = sess.ID
	}
	sess.UpdatedAt = s.o.clock.Now()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// ClaimPrize implements SessionStore.
func (s *MemoryStore) ClaimPrize(_ context.Context, sessionID string, c model.Claim) (bool, error) {
	defer observe("claim_prize", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if sess.PrizeClaimed(c.Prize) {
		return false, nil
	}
	sess.ApplyClaim(c)
	sess.UpdatedAt = s.o.clock.Now()
	return true, nil
}

// CountSessions implements SessionStore.
func (s *MemoryStore) CountSessions(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// ListSessions implements SessionStore.
func (s *MemoryStore) ListSessions(context.Context) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	byInsertion(s, out, func(x *model.Session) string { return x.ID })
	return out, nil
}

// CreatePlayer implements PlayerStore.
func (s *MemoryStore) CreatePlayer(_ context.Context, p *model.Player) error {
	defer observe("create_player", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrConflict)
	}
	for _, other := range s.players {
		if other.SessionID == p.SessionID && other.Nickname == p.Nickname {
			return fmt.Errorf("nickname %q: %w", p.Nickname, ErrConflict)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.o.clock.Now()
	}
	s.players[p.ID] = p.Clone()
	s.stamp(p.ID)
	return nil
}

// GetPlayer implements PlayerStore.
func (s *MemoryStore) GetPlayer(_ context.Context, id string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// GetPlayerByNickname implements PlayerStore.
func (s *MemoryStore) GetPlayerByNickname(_ context.Context, sessionID, nickname string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.SessionID == sessionID && p.Nickname == nickname {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("nickname %q: %w", nickname, ErrNotFound)
}

// SavePlayer implements PlayerStore.
func (s *MemoryStore) SavePlayer(_ context.Context, p *model.Player) error {
	defer observe("save_player", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	s.players[p.ID] = p.Clone()
	return nil
}

// ListPlayers implements PlayerStore.
func (s *MemoryStore) ListPlayers(_ context.Context, sessionID string) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Player, 0)
	for _, p := range s.players {
		if p.SessionID == sessionID {
			out = append(out, p.Clone())
		}
	}
	byInsertion(s, out, func(x *model.Player) string { return x.ID })
	return out, nil
}

// teamNameTaken reports whether another team of the session uses name.
// Callers hold s.mu.
func (s *MemoryStore) teamNameTaken(t *model.Team) bool {
	for _, other := range s.teams {
		if other.ID != t.ID && other.SessionID == t.SessionID && strings.EqualFold(other.Name, t.Name) {
			return true
		}
	}
	return false
}

// CreateTeam implements TeamStore.
func (s *MemoryStore) CreateTeam(_ context.Context, t *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; ok || s.teamNameTaken(t) {
		return fmt.Errorf("team %q: %w", t.Name, ErrConflict)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.o.clock.Now()
	}
	s.teams[t.ID] = t.Clone()
	s.stamp(t.ID)
	return nil
}

// GetTeam implements TeamStore.
func (s *MemoryStore) GetTeam(_ context.Context, id string) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

// SaveTeam implements TeamStore.
func (s *MemoryStore) SaveTeam(_ context.Context, t *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; !ok {
		return fmt.Errorf("team %s: %w", t.ID, ErrNotFound)
	}
	if s.teamNameTaken(t) {
		return fmt.Errorf("team %q: %w", t.Name, ErrConflict)
	}
	s.teams[t.ID] = t.Clone()
	return nil
}

// DeleteTeam implements TeamStore.
func (s *MemoryStore) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	delete(s.teams, id)
	delete(s.inserted, id)
	for _, p := range s.players {
		if p.TeamID == id {
			p.TeamID = ""
		}
	}
	return nil
}

// ListTeams implements TeamStore.
func (s *MemoryStore) ListTeams(_ context.Context, sessionID string) ([]*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Team, 0)
	for _, t := range s.teams {
		if t.SessionID == sessionID {
			out = append(out, t.Clone())
		}
	}
	byInsertion(s, out, func(x *model.Team) string { return x.ID })
	return out, nil
}

// CreateQuestion implements QuestionStore.
func (s *MemoryStore) CreateQuestion(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; ok {
		return fmt.Errorf("question %s: %w", q.ID, ErrConflict)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.o.clock.Now()
	}
	s.questions[q.ID] = q.Clone()
	return nil
}

// GetQuestion implements QuestionStore.
func (s *MemoryStore) GetQuestion(_ context.Context, id string) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q.Clone(), nil
}

// SaveQuestion implements QuestionStore.
func (s *MemoryStore) SaveQuestion(_ context.Context, q *model.Question) error {
	defer observe("save_question", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return fmt.Errorf("question %s: %w", q.ID, ErrNotFound)
	}
	s.questions[q.ID] = q.Clone()
	return nil
}

// DeleteQuestion implements QuestionStore.
func (s *MemoryStore) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	delete(s.questions, id)
	for aid, a := range s.answers {
		if a.QuestionID == id {
			delete(s.answers, aid)
			delete(s.inserted, aid)
		}
	}
	return nil
}

// ListQuestions implements QuestionStore.
func (s *MemoryStore) ListQuestions(_ context.Context, sessionID string) ([]*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Question, 0)
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateAnswer implements QuestionStore.
func (s *MemoryStore) CreateAnswer(_ context.Context, a *model.Answer) error {
	defer observe("create_answer", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[a.ID]; ok {
		return fmt.Errorf("answer %s: %w", a.ID, ErrConflict)
	}
	for _, other := range s.answers {
		if other.PlayerID == a.PlayerID && other.QuestionID == a.QuestionID {
			return fmt.Errorf("answer by %s to %s: %w", a.PlayerID, a.QuestionID, ErrConflict)
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.o.clock.Now()
	}
	s.answers[a.ID] = a.Clone()
	s.stamp(a.ID)
	return nil
}

// ListAnswers implements QuestionStore.
func (s *MemoryStore) ListAnswers(_ context.Context, questionID string) ([]*model.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Answer, 0)
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, a.Clone())
		}
	}
	byInsertion(s, out, func(x *model.Answer) string { return x.ID })
	return out, nil
}

// AppendEvent implements EventStore.
func (s *MemoryStore) AppendEvent(_ context.Context, e *model.Event) error {
	defer observe("append_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.seq++
	e.Seq = s.seq
	e.CreatedAt = s.o.clock.Now()
	s.events[e.SessionID] = append(s.events[e.SessionID], e.Clone())
	return nil
}

// ListEvents implements EventStore.
func (s *MemoryStore) ListEvents(_ context.Context, sessionID string, limit int) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.events[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]*model.Event, len(all))
	for i, e := range all {
		out[i] = e.Clone()
	}
	return out, nil
}

// ListEventsByType implements EventStore.
func (s *MemoryStore) ListEventsByType(_ context.Context, sessionID string, typ model.EventType) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Event, 0)
	for _, e := range s.events[sessionID] {
		if e.Type == typ {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// PurgeSessions implements Purger.
func (s *MemoryStore) PurgeSessions(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.sessions))
	s.reset()
	return n, nil
}

// PurgePlayers implements Purger.
func (s *MemoryStore) PurgePlayers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.players))
	s.players = make(map[string]*model.Player)
	s.answers = make(map[string]*model.Answer)
	return n, nil
}

// PurgeRecords implements Purger.
func (s *MemoryStore) PurgeRecords(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.answers))
	for _, evs := range s.events {
		n += int64(len(evs))
	}
	s.answers = make(map[string]*model.Answer)
	s.events = make(map[string][]*model.Event)
	return n, nil
}

// PurgeTeams implements Purger.
func (s *MemoryStore) PurgeTeams(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.teams))
	s.teams = make(map[string]*model.Team)
	for _, p := range s.players {
		p.TeamID = ""
	}
	return n, nil
}
