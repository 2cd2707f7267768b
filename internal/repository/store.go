package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

// translate maps driver specific errors to repository errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// NewPagination clamps page and limit to sane values.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns the number of pages needed for total rows.
func (p Pagination) Pages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Store groups every repository and runs them inside one transaction on demand.
type Store interface {
	Users() UserRepository
	Jobs() JobRepository
	Applications() ApplicationRepository
	Certificates() CertificateRepository
	Chats() ChatRepository
	Notifications() NotificationRepository
	Plans() PlanRepository
	MockTests() MockTestRepository
	Outbox() OutboxRepository
	// WithTransaction executes fn within a database transaction. Repositories
	// obtained from tx share it; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *gormStore) Jobs() JobRepository                   { return NewJobRepository(s.db) }
func (s *gormStore) Applications() ApplicationRepository   { return NewApplicationRepository(s.db) }
func (s *gormStore) Certificates() CertificateRepository   { return NewCertificateRepository(s.db) }
func (s *gormStore) Chats() ChatRepository                 { return NewChatRepository(s.db) }
func (s *gormStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }
func (s *gormStore) Plans() PlanRepository                 { return NewPlanRepository(s.db) }
func (s *gormStore) MockTests() MockTestRepository         { return NewMockTestRepository(s.db) }
func (s *gormStore) Outbox() OutboxRepository              { return NewOutboxRepository(s.db) }

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// likePattern escapes LIKE wildcards in a user supplied term.
func likePattern(term string) string {
	out := make([]rune, 0, len(term)+2)
	out = append(out, '%')
	for _, r := range term {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '%'))
}
