package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role model.Role, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		all = append(all, *u)
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) ListVerifiedClientEmails(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == model.RoleClient && u.EmailVerified {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock GainRepository ──

type mockGainRepo struct {
	gains map[string]*model.Gain
	seq   int
}

func newMockGainRepo() *mockGainRepo {
	return &mockGainRepo{gains: make(map[string]*model.Gain)}
}

func (m *mockGainRepo) Create(_ context.Context, gain *model.Gain) error {
	if gain.GainID == "" {
		m.seq++
		gain.GainID = fmt.Sprintf("gain-%d", m.seq)
	}
	m.gains[gain.GainID] = gain
	return nil
}

func (m *mockGainRepo) GetByID(_ context.Context, id string) (*model.Gain, error) {
	if g, ok := m.gains[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGainRepo) List(_ context.Context) ([]model.Gain, error) {
	var result []model.Gain
	for _, g := range m.gains {
		result = append(result, *g)
	}
	return result, nil
}

func (m *mockGainRepo) DecrementStock(_ context.Context, gainID string) (int64, error) {
	g, ok := m.gains[gainID]
	if !ok || g.RemainingQuantity <= 0 {
		return 0, nil
	}
	g.RemainingQuantity--
	return 1, nil
}

// ── Mock CodeRepository ──

type mockCodeRepo struct {
	codes map[string]*model.Code // key: code string
	gains *mockGainRepo
	seq   int
}

func newMockCodeRepo(gains *mockGainRepo) *mockCodeRepo {
	return &mockCodeRepo{codes: make(map[string]*model.Code), gains: gains}
}

func (m *mockCodeRepo) BatchCreate(_ context.Context, codes []*model.Code) error {
	for _, c := range codes {
		if _, exists := m.codes[c.Code]; exists {
			return gorm.ErrDuplicatedKey
		}
		if c.CodeID == "" {
			m.seq++
			c.CodeID = fmt.Sprintf("code-%d", m.seq)
		}
		m.codes[c.Code] = c
	}
	return nil
}

func (m *mockCodeRepo) GetByCode(_ context.Context, code string) (*model.Code, error) {
	c, ok := m.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c.Gain == nil {
		c.Gain = m.gains.gains[c.GainID]
	}
	return c, nil
}

func (m *mockCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.Code, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockCodeRepo) MarkUsed(_ context.Context, codeID string) error {
	for _, c := range m.codes {
		if c.CodeID == codeID {
			c.IsUsed = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCodeRepo) CountTotal(_ context.Context) (int64, error) {
	return int64(len(m.codes)), nil
}

func (m *mockCodeRepo) CountUsed(_ context.Context) (int64, error) {
	var n int64
	for _, c := range m.codes {
		if c.IsUsed {
			n++
		}
	}
	return n, nil
}

// byID resolves a code row from its ID (test helper).
func (m *mockCodeRepo) byID(codeID string) *model.Code {
	for _, c := range m.codes {
		if c.CodeID == codeID {
			return c
		}
	}
	return nil
}

// ── Mock ParticipationRepository ──

type mockParticipationRepo struct {
	participations []*model.Participation
	codes          *mockCodeRepo
	users          *mockUserRepo
	gains          *mockGainRepo
	seq            int
}

func newMockParticipationRepo(codes *mockCodeRepo, users *mockUserRepo, gains *mockGainRepo) *mockParticipationRepo {
	return &mockParticipationRepo{codes: codes, users: users, gains: gains}
}

func (m *mockParticipationRepo) Create(_ context.Context, p *model.Participation) error {
	for _, existing := range m.participations {
		if existing.CodeID == p.CodeID {
			return gorm.ErrDuplicatedKey
		}
		if existing.UserID == p.UserID && existing.ParticipationDay == p.ParticipationDay {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ParticipationID == "" {
		m.seq++
		p.ParticipationID = fmt.Sprintf("participation-%d", m.seq)
	}
	m.participations = append(m.participations, p)
	return nil
}

// preload mimics the gorm Preload calls of the real repository.
func (m *mockParticipationRepo) preload(p *model.Participation) *model.Participation {
	if p.Code == nil && m.codes != nil {
		p.Code = m.codes.byID(p.CodeID)
	}
	if p.User == nil && m.users != nil {
		p.User = m.users.users[p.UserID]
	}
	if p.Gain == nil && m.gains != nil {
		p.Gain = m.gains.gains[p.GainID]
	}
	return p
}

func (m *mockParticipationRepo) GetByID(_ context.Context, id string) (*model.Participation, error) {
	for _, p := range m.participations {
		if p.ParticipationID == id {
			return m.preload(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipationRepo) GetByCode(_ context.Context, code string) (*model.Participation, error) {
	c, ok := m.codes.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, p := range m.participations {
		if p.CodeID == c.CodeID {
			return m.preload(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipationRepo) ExistsForUserOnDay(_ context.Context, userID, day string) (bool, error) {
	for _, p := range m.participations {
		if p.UserID == userID && p.ParticipationDay == day {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParticipationRepo) ListByUser(_ context.Context, userID string) ([]model.Participation, error) {
	var result []model.Participation
	for _, p := range m.participations {
		if p.UserID == userID {
			result = append(result, *m.preload(p))
		}
	}
	return result, nil
}

func (m *mockParticipationRepo) ListByClaimed(_ context.Context, claimed bool, offset, limit int) ([]model.Participation, int64, error) {
	var all []model.Participation
	for _, p := range m.participations {
		if p.IsClaimed == claimed {
			all = append(all, *m.preload(p))
		}
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockParticipationRepo) ListAll(_ context.Context, offset, limit int) ([]model.Participation, int64, error) {
	var all []model.Participation
	for _, p := range m.participations {
		all = append(all, *m.preload(p))
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockParticipationRepo) Claim(_ context.Context, id, employeeID string, at time.Time) (int64, error) {
	for _, p := range m.participations {
		if p.ParticipationID == id && !p.IsClaimed {
			p.IsClaimed = true
			claimedAt := at
			p.ClaimedAt = &claimedAt
			p.ClaimedByEmployeeID = &employeeID
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockParticipationRepo) DistinctUserIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range m.participations {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (m *mockParticipationRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.participations)), nil
}

func (m *mockParticipationRepo) CountClaimed(_ context.Context) (int64, error) {
	var n int64
	for _, p := range m.participations {
		if p.IsClaimed {
			n++
		}
	}
	return n, nil
}

func (m *mockParticipationRepo) CountClaimedOnDay(_ context.Context, day string) (int64, error) {
	var n int64
	for _, p := range m.participations {
		if p.IsClaimed && p.ClaimedAt != nil && p.ClaimedAt.UTC().Format("2006-01-02") == day {
			n++
		}
	}
	return n, nil
}

func (m *mockParticipationRepo) CountByGain(_ context.Context, gainID string) (int64, error) {
	var n int64
	for _, p := range m.participations {
		if p.GainID == gainID {
			n++
		}
	}
	return n, nil
}

func (m *mockParticipationRepo) CountClaimedByGain(_ context.Context, gainID string) (int64, error) {
	var n int64
	for _, p := range m.participations {
		if p.GainID == gainID && p.IsClaimed {
			n++
		}
	}
	return n, nil
}

// ── Mock DrawRepository ──

type mockDrawRepo struct {
	results map[string]*model.DrawResult
}

func newMockDrawRepo() *mockDrawRepo {
	return &mockDrawRepo{results: make(map[string]*model.DrawResult)}
}

func (m *mockDrawRepo) Get(_ context.Context, campaign string) (*model.DrawResult, error) {
	if r, ok := m.results[campaign]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDrawRepo) Create(_ context.Context, result *model.DrawResult) error {
	if _, exists := m.results[result.Campaign]; exists {
		return gorm.ErrDuplicatedKey
	}
	if result.DrawResultID == "" {
		result.DrawResultID = "draw-" + result.Campaign
	}
	m.results[result.Campaign] = result
	return nil
}

// ── Mock CacheStore ──

type mockCacheStore struct {
	mu        sync.Mutex
	blacklist map[string]bool
	sessions  map[string]string // jti → userID
	tokens    map[string]string // kind:token → userID
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{
		blacklist: make(map[string]bool),
		sessions:  make(map[string]string),
		tokens:    make(map[string]string),
	}
}

func (m *mockCacheStore) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[jti] = true
	return nil
}

func (m *mockCacheStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blacklist[jti], nil
}

func (m *mockCacheStore) StoreSession(_ context.Context, jti, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[jti] = userID
	return nil
}

func (m *mockCacheStore) SessionExists(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[jti]
	return ok, nil
}

func (m *mockCacheStore) DeleteSession(_ context.Context, jti, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, jti)
	return nil
}

func (m *mockCacheStore) DeleteUserSessions(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, uid := range m.sessions {
		if uid == userID {
			delete(m.sessions, jti)
		}
	}
	return nil
}

func (m *mockCacheStore) StoreToken(_ context.Context, kind, token, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[kind+":"+token] = userID
	return nil
}

func (m *mockCacheStore) ConsumeToken(_ context.Context, kind, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tokens[kind+":"+token]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	delete(m.tokens, kind+":"+token)
	return userID, nil
}

// findToken returns the stored token of a kind for a user (test helper;
// production code only ever consumes tokens).
func (m *mockCacheStore) findToken(kind, userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, uid := range m.tokens {
		if uid == userID && len(key) > len(kind) && key[:len(kind)] == kind {
			return key[len(kind)+1:]
		}
	}
	return ""
}

// ── Mock Mailer ──

type mockMailer struct {
	mu            sync.Mutex
	verification  int
	passwordReset int
	participation int
}

func (m *mockMailer) SendVerificationEmail(_, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verification++
	return nil
}

func (m *mockMailer) SendPasswordResetEmail(_, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordReset++
	return nil
}

func (m *mockMailer) SendParticipationEmail(_, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participation++
	return nil
}

// ── shared fixtures ──

type mockRepos struct {
	repo           *repository.Repository
	users          *mockUserRepo
	gains          *mockGainRepo
	codes          *mockCodeRepo
	participations *mockParticipationRepo
	draws          *mockDrawRepo
}

func newMockRepos() *mockRepos {
	users := newMockUserRepo()
	gains := newMockGainRepo()
	codes := newMockCodeRepo(gains)
	participations := newMockParticipationRepo(codes, users, gains)
	draws := newMockDrawRepo()

	return &mockRepos{
		repo: &repository.Repository{
			User:          users,
			Gain:          gains,
			Code:          codes,
			Participation: participations,
			Draw:          draws,
		},
		users:          users,
		gains:          gains,
		codes:          codes,
		participations: participations,
		draws:          draws,
	}
}

func seedUser(users *mockUserRepo, id, email string, role model.Role) *model.User {
	user := &model.User{
		UserID:        id,
		Name:          "Client Test",
		Email:         email,
		PasswordHash:  "hash",
		Role:          role,
		EmailVerified: true,
	}
	users.users[id] = user
	return user
}

func seedGainWithCode(gains *mockGainRepo, codes *mockCodeRepo, codeStr string, stock int) *model.Gain {
	gain := &model.Gain{
		Name:              "Infuseur à thé",
		Value:             1200,
		Quantity:          stock,
		RemainingQuantity: stock,
	}
	_ = gains.Create(nil, gain)
	_ = codes.BatchCreate(nil, []*model.Code{{Code: codeStr, GainID: gain.GainID}})
	return gain
}
