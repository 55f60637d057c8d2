package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/newsletter/pkg/domain"
)

// Subscription statuses.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

// Subscription is a row of the subscriptions table.
type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex"`
	Name         string    `gorm:"not null"`
	SubscribedAt time.Time `gorm:"not null"`
	Status       string    `gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

// SubscriptionToken is a row of the subscription_tokens table.
type SubscriptionToken struct {
	SubscriptionToken string    `gorm:"primaryKey"`
	SubscriberID      uuid.UUID `gorm:"type:uuid;not null"`
}

func (SubscriptionToken) TableName() string { return "subscription_tokens" }

// SubscriptionStore reads and writes subscriptions through GORM on top of
// a shared pgx pool. The schema is owned by the SQL migrations, never by
// AutoMigrate.
type SubscriptionStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewSubscriptionStore wraps pool. Idle connections are not kept in the
// database/sql layer: every connection goes straight back to pool, so
// closing pool is never blocked by this store.
func NewSubscriptionStore(pool *pgxpool.Pool) (*SubscriptionStore, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	sqlDB.SetMaxIdleConns(0)

	db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &SubscriptionStore{db: db, sqlDB: sqlDB}, nil
}

// DB returns the underlying GORM handle.
func (s *SubscriptionStore) DB() *gorm.DB { return s.db }

// Close releases the database/sql wrapper. The pool is left open.
func (s *SubscriptionStore) Close() error {
	return s.sqlDB.Close()
}

// InsertPendingSubscriber stores sub as pending_confirmation together with
// its confirmation token in a single transaction. A duplicate email
// yields ErrAlreadyExists.
func (s *SubscriptionStore) InsertPendingSubscriber(ctx context.Context, sub domain.NewSubscriber, token domain.SubscriptionToken) (uuid.UUID, error) {
	row := Subscription{
		ID:           uuid.New(),
		Email:        sub.Email.String(),
		Name:         sub.Name.String(),
		SubscribedAt: time.Now().UTC(),
		Status:       StatusPendingConfirmation,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&SubscriptionToken{
			SubscriptionToken: token.String(),
			SubscriberID:      row.ID,
		}).Error
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert subscriber: %w", mapPgError(err))
	}
	return row.ID, nil
}

// SubscriberIDFromToken returns the subscriber a token was issued to, or
// ErrNotFound.
func (s *SubscriptionStore) SubscriberIDFromToken(ctx context.Context, token domain.SubscriptionToken) (uuid.UUID, error) {
	var row SubscriptionToken
	err := s.db.WithContext(ctx).
		Where("subscription_token = ?", token.String()).
		Take(&row).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup token: %w", mapPgError(err))
	}
	return row.SubscriberID, nil
}

// ConfirmSubscriber marks id as confirmed. Confirming twice is not an
// error.
func (s *SubscriptionStore) ConfirmSubscriber(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("id = ?", id).
		Update("status", StatusConfirmed)
	if res.Error != nil {
		return fmt.Errorf("confirm subscriber: %w", mapPgError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("confirm subscriber %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetByEmail returns the subscription for email, or ErrNotFound.
func (s *SubscriptionStore) GetByEmail(ctx context.Context, email string) (*Subscription, error) {
	var row Subscription
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return nil, fmt.Errorf("get subscriber: %w", mapPgError(err))
	}
	return &row, nil
}

// Healthcheck pings the database through the pool.
func (s *SubscriptionStore) Healthcheck(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}
