package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
	"github.com/iliyamo/food-journal-api/internal/queue"
	"github.com/iliyamo/food-journal-api/internal/repository"
)

var errStore = errors.New("store unavailable")

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.User
	err    error // returned by every call when set
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, x := range m.byID {
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
		if x.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	cp.CreatedAt = time.Now().UTC()
	m.byID[cp.ID] = &cp
	u.ID = cp.ID
	return nil
}

func (m *memUsers) EmailExists(_ context.Context, email string, exceptID uint64) (bool, error) {
	return m.find(func(u *model.User) bool { return u.Email == email && u.ID != exceptID })
}

func (m *memUsers) UsernameExists(_ context.Context, username string, exceptID uint64) (bool, error) {
	return m.find(func(u *model.User) bool { return u.Username == username && u.ID != exceptID })
}

func (m *memUsers) find(match func(*model.User) bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, u := range m.byID {
		if match(u) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) FindByLogin(_ context.Context, login string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Username == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(_ context.Context, id uint64, upd model.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FirstName, upd.FirstName)
	set(&u.LastName, upd.LastName)
	set(&u.Username, upd.Username)
	set(&u.PasswordHash, upd.PasswordHash)
	set(&u.Email, upd.Email)
	if upd.ProfilePicture != nil {
		pic := *upd.ProfilePicture
		u.ProfilePicture = &pic
	}
	return nil
}

// memBlacklist is an in-memory RevocationStore.
type memBlacklist struct {
	mu   sync.Mutex
	rows []model.RevokedToken
	err  error
}

func (m *memBlacklist) Insert(_ context.Context, t *model.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	t.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *t)
	return nil
}

func (m *memBlacklist) Exists(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.rows {
		if r.AccessToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBlacklist) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	kept := m.rows[:0]
	var n int64
	for _, r := range m.rows {
		if r.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

// plainHasher prefixes instead of hashing so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (plainHasher) Verify(plain, digest string) bool { return digest == "h:"+plain }

// memPosts is an in-memory PostStore with the same ownership contract as
// the MySQL repository.
type memPosts struct {
	mu     sync.Mutex
	nextID uint64
	posts  map[uint64]*model.PostReview
	users  map[uint64]string
	err    error
}

func newMemPosts(users map[uint64]string) *memPosts {
	return &memPosts{posts: map[uint64]*model.PostReview{}, users: users}
}

func (m *memPosts) Create(_ context.Context, p *model.PostReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[p.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memPosts) owned(id, owner uint64) (*model.PostReview, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.UserID != owner {
		return nil, repository.ErrForbidden
	}
	return p, nil
}

func (m *memPosts) UpdateByIDAndOwner(_ context.Context, p *model.PostReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.owned(p.ID, p.UserID)
	if err != nil {
		return err
	}
	created := cur.CreatedAt
	*cur = *p
	cur.CreatedAt = created
	return nil
}

func (m *memPosts) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, ownerID); err != nil {
		return err
	}
	delete(m.posts, id)
	return nil
}

func (m *memPosts) List(_ context.Context, limit int) ([]model.PostView, error) {
	return m.list(func(*model.PostReview) bool { return true }, limit)
}

func (m *memPosts) ListByUser(_ context.Context, userID uint64, limit int) ([]model.PostView, error) {
	return m.list(func(p *model.PostReview) bool { return p.UserID == userID }, limit)
}

func (m *memPosts) list(keep func(*model.PostReview) bool, limit int) ([]model.PostView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.PostView
	for id := uint64(1); id <= m.nextID && len(out) < limit; id++ {
		p, ok := m.posts[id]
		if !ok || !keep(p) {
			continue
		}
		out = append(out, model.PostView{PostReview: *p, Username: m.users[p.UserID]})
	}
	return out, nil
}

// recordingEvents captures published events.
type recordingEvents struct {
	mu     sync.Mutex
	events []queue.PostReviewEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, ev queue.PostReviewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}
