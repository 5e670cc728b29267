// Package store persists analysis reports in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"docintel/pkg/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("report not found")

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger.Named("gorm")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, logger)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&models.ReportRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, logger: logger.Named("store")}, nil
}

// Save stores report and returns the created row.
func (s *Store) Save(ctx context.Context, report models.ErrorReport) (models.ReportRecord, error) {
	record, err := models.NewReportRecord(report)
	if err != nil {
		return models.ReportRecord{}, err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return models.ReportRecord{}, fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Info("report stored", zap.Uint("id", record.ID), zap.String("engine", record.Engine))
	return record, nil
}

// List returns the newest reports first. limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]models.ReportRecord, error) {
	q := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []models.ReportRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return records, nil
}

// Get returns the report with id or ErrReportNotFound.
func (s *Store) Get(ctx context.Context, id uint) (models.ReportRecord, error) {
	var record models.ReportRecord
	err := s.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReportRecord{}, fmt.Errorf("report %d: %w", id, ErrReportNotFound)
	}
	if err != nil {
		return models.ReportRecord{}, fmt.Errorf("failed to load report: %w", err)
	}
	return record, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
