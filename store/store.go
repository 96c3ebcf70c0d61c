// Package store keeps a local history of the messages and calls handled by
// the gateway in a SQLite database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	Inbound  = "inbound"
	Outbound = "outbound"
)

// Message is one SMS received or sent through the modem.
type Message struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Direction string    `gorm:"index" json:"direction"`
	Number    string    `gorm:"index" json:"number"`
	Text      string    `json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Call is one incoming or missed voice call.
type Call struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Number    string    `gorm:"index" json:"number"`
	Missed    bool      `json:"missed"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type Store struct {
	db *gorm.DB
}

// Open opens the database at path, creating it and its tables if needed.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Message{}, &Call{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveMessage(ctx context.Context, direction, number, text string) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		Direction: direction,
		Number:    number,
		Text:      text,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

func (s *Store) SaveCall(ctx context.Context, number string, missed bool) (Call, error) {
	call := Call{
		ID:     uuid.NewString(),
		Number: number,
		Missed: missed,
	}
	if err := s.db.WithContext(ctx).Create(&call).Error; err != nil {
		return Call{}, fmt.Errorf("save call: %w", err)
	}
	return call, nil
}

// Messages returns up to limit messages, newest first.
func (s *Store) Messages(ctx context.Context, limit int) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// Calls returns up to limit calls, newest first.
func (s *Store) Calls(ctx context.Context, limit int) ([]Call, error) {
	var out []Call
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
