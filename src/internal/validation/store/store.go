// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
)

var (
	// ErrRunNotFound is returned by Get for an unknown run identifier.
	ErrRunNotFound = errors.New("store: run not found")
	// ErrNilReports is returned by Save when there is nothing to store.
	ErrNilReports = errors.New("store: nil reports")
)

// Run is one stored validation run.
type Run struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ValidationTime time.Time `gorm:"index" json:"validationTime"`
	Policy         string    `gorm:"index" json:"policy"`
	ValidCount     int       `json:"validCount"`
	TotalCount     int       `json:"totalCount"`
	// Detailed is the JSON encoding of the complete reports.
	Detailed  string     `gorm:"type:text" json:"-"`
	Tokens    []TokenRow `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"tokens"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TableName sets the table of runs.
func (Run) TableName() string { return "validation_runs" }

// TokenRow is one simple report row of a run.
type TokenRow struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	RunID             string     `gorm:"index;size:36" json:"runId"`
	Position          int        `json:"position"`
	TokenID           string     `gorm:"index" json:"tokenId"`
	Kind              string     `json:"kind"`
	CertificateID     string     `gorm:"index" json:"certificateId"`
	Indication        string     `gorm:"index" json:"indication"`
	SubIndication     string     `json:"subIndication,omitempty"`
	BestSignatureTime *time.Time `json:"bestSignatureTime,omitempty"`
	Qualification     string     `json:"qualification"`
	PastValidation    bool       `json:"pastValidation"`
}

// TableName sets the table of token rows.
func (TokenRow) TableName() string { return "validation_tokens" }

// ReportStore persists validation runs.
//
// Thread Safety: Safe for concurrent use; gorm.DB is.
type ReportStore struct {
	db *gorm.DB
}

// Open opens the SQLite database at dsn and migrates the schema. ":memory:" opens
// a private in-memory database.
func Open(dsn string) (*ReportStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}

	if dsn == ":memory:" {
		// Each connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an open database and migrates the schema.
func New(db *gorm.DB) (*ReportStore, error) {
	if err := db.AutoMigrate(&Run{}, &TokenRow{}); err != nil {
		return nil, fmt.Errorf("store: auto migrate: %w", err)
	}
	return &ReportStore{db: db}, nil
}

// Save stores r under a new run identifier, which is also set on r.
//
// Returns:
//   - string: The run identifier
//   - error: ErrNilReports, or a wrapped database or encoding error
func (s *ReportStore) Save(ctx context.Context, r *report.Reports) (string, error) {
	if r == nil || r.Simple == nil {
		return "", ErrNilReports
	}

	r.RunID = uuid.NewString()
	detailed, err := report.ToJSON(r)
	if err != nil {
		r.RunID = ""
		return "", fmt.Errorf("store: %w", err)
	}

	run := &Run{
		ID:             r.RunID,
		ValidationTime: r.Simple.ValidationTime,
		Policy:         r.Simple.Policy,
		ValidCount:     r.Simple.ValidCount,
		TotalCount:     r.Simple.TotalCount,
		Detailed:       string(detailed),
		Tokens:         make([]TokenRow, 0, len(r.Simple.Tokens)),
	}
	for i, t := range r.Simple.Tokens {
		run.Tokens = append(run.Tokens, TokenRow{
			Position:          i,
			TokenID:           t.ID,
			Kind:              string(t.Kind),
			CertificateID:     t.CertificateID,
			Indication:        string(t.Indication),
			SubIndication:     string(t.SubIndication),
			BestSignatureTime: t.BestSignatureTime,
			Qualification:     t.Qualification,
			PastValidation:    t.PastValidation,
		})
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		r.RunID = ""
		return "", fmt.Errorf("store: save run: %w", err)
	}
	return run.ID, nil
}

// Get returns the run with its token rows.
func (s *ReportStore) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Tokens", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return &run, nil
}

// Filter narrows List.
type Filter struct {
	// Policy keeps runs validated under the named policy.
	Policy string
	// Limit caps the number of runs; zero means no limit.
	Limit int
}

// List returns stored runs, most recent first, with their token rows.
func (s *ReportStore) List(ctx context.Context, f Filter) ([]Run, error) {
	q := s.db.WithContext(ctx).
		Preload("Tokens", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at DESC").Order("id")
	if f.Policy != "" {
		q = q.Where("policy = ?", f.Policy)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying database.
func (s *ReportStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
