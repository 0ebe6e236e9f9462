package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

const roleAdmin = "admin"

// Thesis is one registered thesis submission.
type Thesis struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string    `gorm:"not null" json:"title"`
	StudentName        string    `gorm:"not null" json:"student_name"`
	StudentEmail       string    `gorm:"not null;index" json:"student_email"`
	RegistrationNumber string    `json:"registration_number"`
	IsLPU              bool      `gorm:"column:is_lpu;index" json:"is_lpu"`
	Campus             string    `gorm:"index" json:"campus"`
	Program            string    `gorm:"index" json:"program"`
	Degree             string    `gorm:"index" json:"degree"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
}

func (Thesis) TableName() string { return "theses" }

// Feedback is a portal rating with an optional comment.
type Feedback struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ThesisID  *uuid.UUID `gorm:"type:uuid;index" json:"thesis_id,omitempty"`
	Rating    int        `gorm:"not null" json:"rating"`
	Comments  *string    `json:"comments"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"not null" json:"-"`
	Role           string    `gorm:"not null" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

var ErrNotFound = errors.New("record not found")

// Store persists theses, feedback and admin users.
type Store struct {
	db *gorm.DB
}

// openStore connects to the configured database and migrates the schema.
func openStore(cfg DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Thesis{}, &Feedback{}, &User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	zap.L().Info("database ready", zap.String("type", cfg.Type))
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateThesis(ctx context.Context, t *Thesis) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create thesis: %w", err)
	}
	return nil
}

func (s *Store) CreateFeedback(ctx context.Context, f *Feedback) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// EnsureAdmin creates the admin account when it does not exist yet.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	if _, err := s.FindUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := createHash(password)
	if err != nil {
		return err
	}
	u := User{ID: uuid.New(), Email: strings.ToLower(email), HashedPassword: hash, Role: roleAdmin}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	zap.L().Info("admin user created", zap.String("email", u.Email))
	return nil
}

var argonParams = argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  32,
	KeyLength:   32,
}

func createHash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, &argonParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}
