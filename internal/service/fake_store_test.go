package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
	"jobportal/internal/repository"
)

// memDB holds every table of the in-memory store.
type memDB struct {
	users         map[uuid.UUID]model.User
	jobs          map[uuid.UUID]model.Job
	apps          map[uuid.UUID]model.Application
	certs         map[uuid.UUID]model.Certificate
	chats         map[uuid.UUID]model.Chat
	messages      []model.ChatMessage
	notifications map[uuid.UUID]model.Notification
	plans         map[uuid.UUID]model.SubscriptionPlan
	tests         map[uuid.UUID]model.MockTest
	results       []model.MockTestResult
	outbox        []model.OutboxEvent
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memDB) clone() *memDB {
	return &memDB{
		users:         cloneMap(d.users),
		jobs:          cloneMap(d.jobs),
		apps:          cloneMap(d.apps),
		certs:         cloneMap(d.certs),
		chats:         cloneMap(d.chats),
		messages:      append([]model.ChatMessage(nil), d.messages...),
		notifications: cloneMap(d.notifications),
		plans:         cloneMap(d.plans),
		tests:         cloneMap(d.tests),
		results:       append([]model.MockTestResult(nil), d.results...),
		outbox:        append([]model.OutboxEvent(nil), d.outbox...),
	}
}

// fakeStore is a repository.Store kept in memory. It enforces the unique
// indexes and conditional updates of the SQL store and rolls back failed
// transactions from a snapshot.
type fakeStore struct {
	mu    *sync.Mutex
	data  **memDB
	inTx  bool
	fails map[string]error
}

func newFakeStore() *fakeStore {
	db := &memDB{
		users:         map[uuid.UUID]model.User{},
		jobs:          map[uuid.UUID]model.Job{},
		apps:          map[uuid.UUID]model.Application{},
		certs:         map[uuid.UUID]model.Certificate{},
		chats:         map[uuid.UUID]model.Chat{},
		notifications: map[uuid.UUID]model.Notification{},
		plans:         map[uuid.UUID]model.SubscriptionPlan{},
		tests:         map[uuid.UUID]model.MockTest{},
	}
	return &fakeStore{mu: &sync.Mutex{}, data: &db, fails: map[string]error{}}
}

// failOn makes the named operation return err, e.g. "outbox.Append".
func (s *fakeStore) failOn(op string, err error) { s.fails[op] = err }

func (s *fakeStore) fail(op string) error { return s.fails[op] }

// lock serializes access outside transactions; inside one the lock is already held.
func (s *fakeStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) db() *memDB { return *s.data }

func (s *fakeStore) Users() repository.UserRepository                 { return fakeUsers{s} }
func (s *fakeStore) Jobs() repository.JobRepository                   { return fakeJobs{s} }
func (s *fakeStore) Applications() repository.ApplicationRepository   { return fakeApps{s} }
func (s *fakeStore) Certificates() repository.CertificateRepository   { return fakeCerts{s} }
func (s *fakeStore) Chats() repository.ChatRepository                 { return fakeChats{s} }
func (s *fakeStore) Notifications() repository.NotificationRepository { return fakeNotifications{s} }
func (s *fakeStore) Plans() repository.PlanRepository                 { return fakePlans{s} }
func (s *fakeStore) MockTests() repository.MockTestRepository         { return fakeMockTests{s} }
func (s *fakeStore) Outbox() repository.OutboxRepository              { return fakeOutbox{s} }

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.db().clone()
	tx := &fakeStore{mu: s.mu, data: s.data, inTx: true, fails: s.fails}
	if err := fn(ctx, tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

// seed helpers, used by tests only

func (s *fakeStore) addUser(u model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Email == "" {
		u.Email = u.ID.String() + "@example.com"
	}
	u.IsActive = true
	u.CreatedAt = time.Now()
	s.db().users[u.ID] = u
	return &u
}

func (s *fakeStore) user(id uuid.UUID) *model.User {
	u := s.db().users[id]
	return &u
}

func (s *fakeStore) addJob(j model.Job) *model.Job {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Vacancies == 0 {
		j.Vacancies = 1
	}
	j.CreatedAt = time.Now()
	s.db().jobs[j.ID] = j
	return &j
}

func (s *fakeStore) job(id uuid.UUID) model.Job { return s.db().jobs[id] }

func (s *fakeStore) events(kind string) []model.OutboxEvent {
	var out []model.OutboxEvent
	for _, e := range s.db().outbox {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeUsers struct{ s *fakeStore }

func (r fakeUsers) Create(_ context.Context, u *model.User) error {
	defer r.s.lock()()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.db().users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	_ = u.BeforeCreate(nil)
	u.CreatedAt = time.Now()
	r.s.db().users[u.ID] = *u
	return nil
}

// Update copies only the named columns, like the SQL store's Select(...).Updates.
func (r fakeUsers) Update(_ context.Context, u *model.User, columns ...string) error {
	defer r.s.lock()()
	if err := r.s.fail("users.Update"); err != nil {
		return err
	}
	stored, ok := r.s.db().users[u.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if len(columns) == 0 {
		panic("users.Update without columns")
	}
	for _, c := range columns {
		switch c {
		case "name":
			stored.Name = u.Name
		case "phone":
			stored.Phone = u.Phone
		case "password_hash":
			stored.PasswordHash = u.PasswordHash
		case "is_active":
			stored.IsActive = u.IsActive
		case "student_details":
			stored.StudentDetails = u.StudentDetails
		case "employer_details":
			stored.EmployerDetails = u.EmployerDetails
		case "admin_details":
			stored.AdminDetails = u.AdminDetails
		case "subscription_plan_id":
			stored.SubscriptionPlanID = u.SubscriptionPlanID
		case "subscription_expires_at":
			stored.SubscriptionExpiresAt = u.SubscriptionExpiresAt
		default:
			panic("users.Update: unknown column " + c)
		}
	}
	stored.UpdatedAt = time.Now()
	r.s.db().users[u.ID] = stored
	return nil
}

func (r fakeUsers) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	if r.s.inTx {
		return fn(ctx, r)
	}
	return r.s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, tx.Users())
	})
}

func (r fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	defer r.s.lock()()
	u, ok := r.s.db().users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r fakeUsers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.FindByID(ctx, id)
}

func (r fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	defer r.s.lock()()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.db().users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeUsers) List(_ context.Context, f repository.UserFilter, p repository.Pagination) ([]model.User, int64, error) {
	defer r.s.lock()()
	var out []model.User
	for _, u := range r.s.db().users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email+" "+u.Employer().ShopName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (r fakeUsers) ListIDsByRole(_ context.Context, role model.Role) ([]uuid.UUID, error) {
	defer r.s.lock()()
	var ids []uuid.UUID
	for _, u := range r.s.db().users {
		if u.Role == role && u.IsActive {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func paginate[T any](items []T, p repository.Pagination) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type fakeJobs struct{ s *fakeStore }

func (r fakeJobs) Create(_ context.Context, j *model.Job) error {
	defer r.s.lock()()
	_ = j.BeforeCreate(nil)
	j.CreatedAt = time.Now()
	r.s.db().jobs[j.ID] = *j
	return nil
}

func (r fakeJobs) Update(_ context.Context, j *model.Job) error {
	defer r.s.lock()()
	existing, ok := r.s.db().jobs[j.ID]
	if !ok {
		return nil
	}
	updated := *j
	updated.ApplicationCount = existing.ApplicationCount
	updated.PostedBy = existing.PostedBy
	r.s.db().jobs[j.ID] = updated
	return nil
}

func (r fakeJobs) FindByID(_ context.Context, id uuid.UUID) (*model.Job, error) {
	defer r.s.lock()()
	j, ok := r.s.db().jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &j, nil
}

func (r fakeJobs) List(_ context.Context, f repository.JobFilter, p repository.Pagination) ([]model.Job, int64, error) {
	defer r.s.lock()()
	var out []model.Job
	for _, j := range r.s.db().jobs {
		if !f.IncludeInactive && !j.IsActive {
			continue
		}
		if f.PostedBy != nil && j.PostedBy != *f.PostedBy {
			continue
		}
		if f.Category != "" && j.Category != f.Category {
			continue
		}
		if f.Department != "" && j.Department != f.Department {
			continue
		}
		if f.Location != "" && j.Location != f.Location {
			continue
		}
		if f.Search != "" {
			hay := strings.ToLower(j.Title + " " + j.Department + " " + j.Location)
			if !strings.Contains(hay, strings.ToLower(f.Search)) {
				continue
			}
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (r fakeJobs) IncrementApplications(_ context.Context, id uuid.UUID, delta int) error {
	defer r.s.lock()()
	j, ok := r.s.db().jobs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if j.ApplicationCount+delta < 0 {
		return repository.ErrCountUnderflow
	}
	j.ApplicationCount += delta
	r.s.db().jobs[id] = j
	return nil
}

type fakeApps struct{ s *fakeStore }

func (r fakeApps) Create(_ context.Context, a *model.Application) error {
	defer r.s.lock()()
	if err := r.s.fail("applications.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.db().apps {
		if existing.StudentID == a.StudentID && existing.JobID == a.JobID {
			return repository.ErrDuplicate
		}
	}
	_ = a.BeforeCreate(nil)
	r.s.db().apps[a.ID] = *a
	return nil
}

func (r fakeApps) FindByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	defer r.s.lock()()
	a, ok := r.s.db().apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r fakeApps) FindByStudentAndJob(_ context.Context, studentID, jobID uuid.UUID) (*model.Application, error) {
	defer r.s.lock()()
	for _, a := range r.s.db().apps {
		if a.StudentID == studentID && a.JobID == jobID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeApps) List(_ context.Context, f repository.ApplicationFilter) ([]model.Application, error) {
	defer r.s.lock()()
	var out []model.Application
	for _, a := range r.s.db().apps {
		if f.StudentID != nil && a.StudentID != *f.StudentID {
			continue
		}
		if f.EmployerID != nil && a.EmployerID != *f.EmployerID {
			continue
		}
		if f.JobID != nil && a.JobID != *f.JobID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func (r fakeApps) CountActiveByStudent(_ context.Context, studentID uuid.UUID, since time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, a := range r.s.db().apps {
		if a.StudentID == studentID && a.Status != model.ApplicationWithdrawn && !a.AppliedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r fakeApps) Transition(_ context.Context, id uuid.UUID, from model.ApplicationStatus, t repository.ApplicationTransition) (bool, error) {
	defer r.s.lock()()
	a, ok := r.s.db().apps[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = t.To
	if t.ReviewedBy != nil {
		by := *t.ReviewedBy
		a.ReviewedBy = &by
	}
	if t.ReviewedDate != nil {
		at := *t.ReviewedDate
		a.ReviewedDate = &at
	}
	if t.Notes != nil {
		a.Notes = *t.Notes
	}
	r.s.db().apps[id] = a
	return true, nil
}

type fakeCerts struct{ s *fakeStore }

func (r fakeCerts) Create(_ context.Context, c *model.Certificate) error {
	defer r.s.lock()()
	_ = c.BeforeCreate(nil)
	c.CreatedAt = time.Now()
	r.s.db().certs[c.ID] = *c
	return nil
}

func (r fakeCerts) FindByID(_ context.Context, id uuid.UUID) (*model.Certificate, error) {
	defer r.s.lock()()
	c, ok := r.s.db().certs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeCerts) List(_ context.Context, f repository.CertificateFilter) ([]model.Certificate, error) {
	defer r.s.lock()()
	var out []model.Certificate
	for _, c := range r.s.db().certs {
		if f.StudentID != nil && c.StudentID != *f.StudentID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r fakeCerts) Transition(_ context.Context, id uuid.UUID, from model.CertificateStatus, t repository.CertificateTransition) (bool, error) {
	defer r.s.lock()()
	c, ok := r.s.db().certs[id]
	if !ok || c.Status != from {
		return false, nil
	}
	by, at := t.VerifiedBy, t.VerifiedDate
	c.Status, c.VerifiedBy, c.VerifiedDate, c.Notes = t.To, &by, &at, t.Notes
	r.s.db().certs[id] = c
	return true, nil
}

func (r fakeCerts) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.db().certs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.db().certs, id)
	return nil
}

type fakeChats struct{ s *fakeStore }

func (r fakeChats) Create(_ context.Context, c *model.Chat) error {
	defer r.s.lock()()
	for _, existing := range r.s.db().chats {
		if existing.PairKey == c.PairKey {
			return repository.ErrDuplicate
		}
	}
	_ = c.BeforeCreate(nil)
	c.CreatedAt = time.Now()
	r.s.db().chats[c.ID] = *c
	return nil
}

func (r fakeChats) FindByID(_ context.Context, id uuid.UUID) (*model.Chat, error) {
	defer r.s.lock()()
	c, ok := r.s.db().chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeChats) FindByPairKey(_ context.Context, key string) (*model.Chat, error) {
	defer r.s.lock()()
	for _, c := range r.s.db().chats {
		if c.PairKey == key {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeChats) ListForUser(_ context.Context, userID uuid.UUID) ([]model.Chat, error) {
	defer r.s.lock()()
	var out []model.Chat
	for _, c := range r.s.db().chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeChats) AppendMessage(_ context.Context, m *model.ChatMessage) error {
	defer r.s.lock()()
	if err := r.s.fail("chats.AppendMessage"); err != nil {
		return err
	}
	_ = m.BeforeCreate(nil)
	r.s.db().messages = append(r.s.db().messages, *m)
	c := r.s.db().chats[m.ChatID]
	at := m.CreatedAt
	c.LastMessageAt = &at
	r.s.db().chats[m.ChatID] = c
	return nil
}

func (r fakeChats) ListMessages(_ context.Context, chatID uuid.UUID) ([]model.ChatMessage, error) {
	defer r.s.lock()()
	var out []model.ChatMessage
	for _, m := range r.s.db().messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r fakeChats) MarkRead(_ context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	msgs := r.s.db().messages
	for i := range msgs {
		if msgs[i].ChatID == chatID && msgs[i].SenderID != readerID && msgs[i].ReadAt == nil {
			t := at
			msgs[i].ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (r fakeChats) CountUnread(_ context.Context, chatID, readerID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, m := range r.s.db().messages {
		if m.ChatID == chatID && m.SenderID != readerID && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type fakeNotifications struct{ s *fakeStore }

func (r fakeNotifications) CreateBatch(_ context.Context, list []model.Notification) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, item := range list {
		_ = item.BeforeCreate(nil)
		r.s.db().notifications[item.ID] = item
		n++
	}
	return n, nil
}

func (r fakeNotifications) FindByID(_ context.Context, id uuid.UUID, now time.Time) (*model.Notification, error) {
	defer r.s.lock()()
	n, ok := r.s.db().notifications[id]
	if !ok || !n.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r fakeNotifications) List(_ context.Context, userID uuid.UUID, f repository.NotificationFilter, p repository.Pagination, now time.Time) ([]model.Notification, int64, error) {
	defer r.s.lock()()
	var out []model.Notification
	for _, n := range r.s.db().notifications {
		if n.UserID != userID || !n.ExpiresAt.After(now) {
			continue
		}
		if f.Panel != "" && n.Panel != f.Panel {
			continue
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), int64(len(out)), nil
}

func (r fakeNotifications) CountUnread(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	defer r.s.lock()()
	var c int64
	for _, n := range r.s.db().notifications {
		if n.UserID == userID && !n.IsRead && n.ExpiresAt.After(now) {
			c++
		}
	}
	return c, nil
}

func (r fakeNotifications) MarkRead(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock()()
	n, ok := r.s.db().notifications[id]
	if ok && !n.IsRead {
		n.IsRead, n.ReadAt = true, &at
		r.s.db().notifications[id] = n
	}
	return nil
}

func (r fakeNotifications) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.lock()()
	var c int64
	for id, n := range r.s.db().notifications {
		if n.UserID == userID && !n.IsRead && n.ExpiresAt.After(at) {
			n.IsRead, n.ReadAt = true, &at
			r.s.db().notifications[id] = n
			c++
		}
	}
	return c, nil
}

func (r fakeNotifications) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	delete(r.s.db().notifications, id)
	return nil
}

func (r fakeNotifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	var c int64
	for id, n := range r.s.db().notifications {
		if !n.ExpiresAt.After(now) {
			delete(r.s.db().notifications, id)
			c++
		}
	}
	return c, nil
}

type fakePlans struct{ s *fakeStore }

func (r fakePlans) Create(_ context.Context, p *model.SubscriptionPlan) error {
	defer r.s.lock()()
	for _, existing := range r.s.db().plans {
		if existing.Name == p.Name {
			return repository.ErrDuplicate
		}
	}
	_ = p.BeforeCreate(nil)
	r.s.db().plans[p.ID] = *p
	return nil
}

func (r fakePlans) Update(_ context.Context, p *model.SubscriptionPlan) error {
	defer r.s.lock()()
	for _, existing := range r.s.db().plans {
		if existing.Name == p.Name && existing.ID != p.ID {
			return repository.ErrDuplicate
		}
	}
	r.s.db().plans[p.ID] = *p
	return nil
}

func (r fakePlans) FindByID(_ context.Context, id uuid.UUID) (*model.SubscriptionPlan, error) {
	defer r.s.lock()()
	p, ok := r.s.db().plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r fakePlans) FindByName(_ context.Context, name string) (*model.SubscriptionPlan, error) {
	defer r.s.lock()()
	for _, p := range r.s.db().plans {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakePlans) List(_ context.Context, activeOnly bool) ([]model.SubscriptionPlan, error) {
	defer r.s.lock()()
	var out []model.SubscriptionPlan
	for _, p := range r.s.db().plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

type fakeMockTests struct{ s *fakeStore }

func (r fakeMockTests) Create(_ context.Context, t *model.MockTest) error {
	defer r.s.lock()()
	_ = t.BeforeCreate(nil)
	r.s.db().tests[t.ID] = *t
	return nil
}

func (r fakeMockTests) Update(_ context.Context, t *model.MockTest) error {
	defer r.s.lock()()
	r.s.db().tests[t.ID] = *t
	return nil
}

func (r fakeMockTests) FindByID(_ context.Context, id uuid.UUID) (*model.MockTest, error) {
	defer r.s.lock()()
	t, ok := r.s.db().tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r fakeMockTests) List(_ context.Context, category string, activeOnly bool) ([]model.MockTest, error) {
	defer r.s.lock()()
	var out []model.MockTest
	for _, t := range r.s.db().tests {
		if category != "" && t.Category != category {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r fakeMockTests) CreateResult(_ context.Context, res *model.MockTestResult) error {
	defer r.s.lock()()
	_ = res.BeforeCreate(nil)
	r.s.db().results = append(r.s.db().results, *res)
	return nil
}

func (r fakeMockTests) ListResults(_ context.Context, studentID uuid.UUID) ([]model.MockTestResult, error) {
	defer r.s.lock()()
	var out []model.MockTestResult
	for _, res := range r.s.db().results {
		if res.StudentID == studentID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r fakeMockTests) CountResults(_ context.Context, studentID uuid.UUID, since time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, res := range r.s.db().results {
		if res.StudentID == studentID && !res.CompletedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type fakeOutbox struct{ s *fakeStore }

func (r fakeOutbox) Append(_ context.Context, e *model.OutboxEvent) error {
	defer r.s.lock()()
	if err := r.s.fail("outbox.Append"); err != nil {
		return err
	}
	_ = e.BeforeCreate(nil)
	if e.Status == "" {
		e.Status = model.OutboxPending
	}
	e.CreatedAt = time.Now()
	r.s.db().outbox = append(r.s.db().outbox, *e)
	return nil
}

func (r fakeOutbox) ClaimPending(_ context.Context, now time.Time, lease time.Duration, limit int) ([]model.OutboxEvent, error) {
	defer r.s.lock()()
	var out []model.OutboxEvent
	for i, e := range r.s.db().outbox {
		if len(out) >= limit {
			break
		}
		if e.Status == model.OutboxPending && !e.AvailableAt.After(now) {
			out = append(out, e)
			r.s.db().outbox[i].AvailableAt = now.Add(lease)
		}
	}
	return out, nil
}

func (r fakeOutbox) MarkDispatched(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock()()
	for i := range r.s.db().outbox {
		if r.s.db().outbox[i].ID == id {
			r.s.db().outbox[i].Status = model.OutboxDispatched
			r.s.db().outbox[i].DispatchedAt = &at
		}
	}
	return nil
}

func (r fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastErr string, retryAt time.Time, dead bool) error {
	defer r.s.lock()()
	for i := range r.s.db().outbox {
		e := &r.s.db().outbox[i]
		if e.ID != id {
			continue
		}
		e.Attempts, e.LastError, e.AvailableAt = attempts, lastErr, retryAt
		if dead {
			e.Status = model.OutboxFailed
		}
	}
	return nil
}

func (r fakeOutbox) CountByStatus(_ context.Context, status model.OutboxStatus) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, e := range r.s.db().outbox {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

var _ repository.Store = (*fakeStore)(nil)
