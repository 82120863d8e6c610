package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/repository"
)

// memData is one consistent snapshot of the persisted state.
type memData struct {
	users     map[string]domain.User
	sessions  map[string]domain.Session
	singleUse map[string]domain.SingleUseToken
	twoFactor map[string]domain.TwoFactorToken
	audit     []domain.AuditEntry
}

func (d *memData) clone() *memData {
	out := &memData{
		users:     make(map[string]domain.User, len(d.users)),
		sessions:  make(map[string]domain.Session, len(d.sessions)),
		singleUse: make(map[string]domain.SingleUseToken, len(d.singleUse)),
		twoFactor: make(map[string]domain.TwoFactorToken, len(d.twoFactor)),
		audit:     append([]domain.AuditEntry(nil), d.audit...),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.sessions {
		out.sessions[k] = v
	}
	for k, v := range d.singleUse {
		out.singleUse[k] = v
	}
	for k, v := range d.twoFactor {
		out.twoFactor[k] = v
	}
	return out
}

// memStore implements port.Store over in-memory maps. WithinTx runs the
// closure against a snapshot and swaps it in only on success, so rollback
// really discards partial writes.
type memStore struct {
	data      *memData
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{
		data: &memData{
			users:     make(map[string]domain.User),
			sessions:  make(map[string]domain.Session),
			singleUse: make(map[string]domain.SingleUseToken),
			twoFactor: make(map[string]domain.TwoFactorToken),
		},
	}
}

func (s *memStore) Users() port.UserRepository       { return memUsers{s.data} }
func (s *memStore) Sessions() port.SessionRepository { return memSessions{s.data} }
func (s *memStore) SingleUseTokens() port.SingleUseTokenRepository {
	return memSingleUse{s.data}
}
func (s *memStore) TwoFactorTokens() port.TwoFactorTokenRepository {
	return memTwoFactor{s.data}
}
func (s *memStore) Audit() port.AuditRepository { return memAudit{s.data, s.appendErr} }

func (s *memStore) WithinTx(_ context.Context, fn func(r port.RepositorySet) error) error {
	snapshot := s.data.clone()
	tx := &memStore{data: snapshot, appendErr: s.appendErr}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

func (s *memStore) auditActions(userID string) []domain.AuditAction {
	var actions []domain.AuditAction
	for _, e := range s.data.audit {
		if e.UserID == userID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

func (s *memStore) hasAudit(userID string, action domain.AuditAction) bool {
	for _, a := range s.auditActions(userID) {
		if a == action {
			return true
		}
	}
	return false
}

//

type memUsers struct{ d *memData }

func (r memUsers) Create(_ context.Context, user domain.User) error {
	for _, existing := range r.d.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if _, ok := r.d.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	r.d.users[user.ID] = user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.d.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) MarkVerified(_ context.Context, id string, at time.Time) error {
	user, ok := r.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.UpdatedAt = at
	r.d.users[id] = user
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	user, ok := r.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = at
	r.d.users[id] = user
	return nil
}

func (r memUsers) UpdateSettings(_ context.Context, id string, settings domain.UserSettings, at time.Time) (*domain.User, error) {
	user, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if settings.IsTwoFactorEnabled != nil {
		user.IsTwoFactorEnabled = *settings.IsTwoFactorEnabled
	}
	user.UpdatedAt = at
	r.d.users[id] = user
	return &user, nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	if _, ok := r.d.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.users, id)
	for sid, session := range r.d.sessions {
		if session.UserID == id {
			delete(r.d.sessions, sid)
		}
	}
	for tid, token := range r.d.singleUse {
		if token.UserID == id {
			delete(r.d.singleUse, tid)
		}
	}
	delete(r.d.twoFactor, id)
	return nil
}

//

type memSessions struct{ d *memData }

func (r memSessions) Create(_ context.Context, session domain.Session) error {
	if _, ok := r.d.sessions[session.ID]; ok {
		return repository.ErrDuplicate
	}
	r.d.sessions[session.ID] = session
	return nil
}

func (r memSessions) FindActiveByTokenHash(_ context.Context, userID, tokenHash string) (*domain.Session, error) {
	for _, session := range r.d.sessions {
		if session.UserID == userID && session.TokenHash == tokenHash && !session.Revoked {
			copied := session
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memSessions) Rotate(_ context.Context, sessionID, oldTokenHash, newTokenHash string, at time.Time) (int64, error) {
	session, ok := r.d.sessions[sessionID]
	if !ok || session.TokenHash != oldTokenHash || session.Revoked {
		return 0, repository.ErrNotFound
	}
	session.TokenHash = newTokenHash
	session.RotationCounter++
	session.UpdatedAt = at
	r.d.sessions[sessionID] = session
	return session.RotationCounter, nil
}

func (r memSessions) RevokeOne(_ context.Context, userID, tokenHash string, at time.Time) error {
	for id, session := range r.d.sessions {
		if session.UserID == userID && session.TokenHash == tokenHash && !session.Revoked {
			session.Revoked = true
			session.UpdatedAt = at
			r.d.sessions[id] = session
		}
	}
	return nil
}

func (r memSessions) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int, error) {
	count := 0
	for id, session := range r.d.sessions {
		if session.UserID == userID && !session.Revoked {
			session.Revoked = true
			session.UpdatedAt = at
			r.d.sessions[id] = session
			count++
		}
	}
	return count, nil
}

func (r memSessions) CountActiveByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, session := range r.d.sessions {
		if session.UserID == userID && !session.Revoked {
			count++
		}
	}
	return count, nil
}

//

type memSingleUse struct{ d *memData }

func (r memSingleUse) Upsert(_ context.Context, token domain.SingleUseToken) error {
	for id, existing := range r.d.singleUse {
		if existing.UserID == token.UserID && existing.Purpose == token.Purpose {
			delete(r.d.singleUse, id)
		}
	}
	r.d.singleUse[token.ID] = token
	return nil
}

func (r memSingleUse) GetByToken(_ context.Context, purpose domain.TokenPurpose, token string) (*domain.SingleUseToken, error) {
	for _, record := range r.d.singleUse {
		if record.Purpose == purpose && record.Token == token {
			copied := record
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memSingleUse) Delete(_ context.Context, id string) error {
	if _, ok := r.d.singleUse[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.singleUse, id)
	return nil
}

//

type memTwoFactor struct{ d *memData }

func (r memTwoFactor) Upsert(_ context.Context, token domain.TwoFactorToken) error {
	r.d.twoFactor[token.UserID] = token
	return nil
}

func (r memTwoFactor) GetByUserID(_ context.Context, userID string) (*domain.TwoFactorToken, error) {
	token, ok := r.d.twoFactor[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (r memTwoFactor) Delete(_ context.Context, id string) error {
	for userID, token := range r.d.twoFactor {
		if token.ID == id {
			delete(r.d.twoFactor, userID)
			return nil
		}
	}
	return repository.ErrNotFound
}

//

type memAudit struct {
	d         *memData
	appendErr error
}

func (r memAudit) Append(_ context.Context, entry domain.AuditEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.d.audit = append(r.d.audit, entry)
	return nil
}

func (r memAudit) ListByUser(_ context.Context, userID string, page, limit int) ([]domain.AuditEntry, int, error) {
	var matched []domain.AuditEntry
	for _, entry := range r.d.audit {
		if entry.UserID == userID {
			matched = append(matched, entry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

//

// plainHasher keeps usecase tests deterministic and fast; the real Argon2
// hasher has its own tests in the security package.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("empty plaintext")
	}
	return "hashed:" + plaintext, nil
}

func (plainHasher) Verify(plaintext, encoded string) (bool, error) {
	return encoded == "hashed:"+plaintext, nil
}

//

type recordingMailSender struct {
	twoFactorCodes     []string
	verificationTokens []string
	resetTokens        []string
	sendErr            error
}

func (m *recordingMailSender) SendTwoFactorCode(_ context.Context, _, code string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.twoFactorCodes = append(m.twoFactorCodes, code)
	return nil
}

func (m *recordingMailSender) SendVerificationLink(_ context.Context, _, token string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.verificationTokens = append(m.verificationTokens, token)
	return nil
}

func (m *recordingMailSender) SendPasswordResetLink(_ context.Context, _, token string, _ time.Time) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.resetTokens = append(m.resetTokens, token)
	return nil
}

//

type recordingEventPublisher struct {
	registered      []domain.UserRegisteredEvent
	passwordChanged []domain.PasswordChangedEvent
}

func (p *recordingEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.registered = append(p.registered, event)
	return nil
}

func (p *recordingEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.passwordChanged = append(p.passwordChanged, event)
	return nil
}
