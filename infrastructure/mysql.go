package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"ai-shortlist/domain"
	"ai-shortlist/shortlist"
)

// MySQLStore implements shortlist.Store on top of the shared relational
// store the job board writes to.
type MySQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Company{}, &domain.Job{}, &domain.Application{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	store := &MySQLStore{db: db, logger: logger}
	if err := store.seedJobs(); err != nil {
		return nil, err
	}

	logger.Info("connected to MySQL and migrated schema")
	return store, nil
}

func (s *MySQLStore) JobByID(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Preload("Company").First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shortlist.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %d: %w", id, err)
	}
	return &job, nil
}

func (s *MySQLStore) ApplicationsByJob(ctx context.Context, jobID uint) ([]domain.Application, error) {
	var apps []domain.Application
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *MySQLStore) AnalyzedApplicationsByJob(ctx context.Context, jobID uint) ([]domain.Application, error) {
	var apps []domain.Application
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND ai_match_score IS NOT NULL", jobID).
		Order("created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *MySQLStore) SaveEvaluation(ctx context.Context, applicationID uint, score int, insights string) error {
	return s.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ?", applicationID).
		Updates(map[string]interface{}{
			"ai_match_score": score,
			"ai_insights":    &insights,
			"updated_at":     time.Now(),
		}).Error
}

// seedJobs inserts a demo company and job when the jobs table is empty so
// a fresh deployment has something to shortlist against.
func (s *MySQLStore) seedJobs() error {
	var count int64
	if err := s.db.Model(&domain.Job{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	if count > 0 {
		return nil
	}

	company := domain.Company{Name: "Acme Cloud", LogoURL: "https://example.com/acme.png"}
	if err := s.db.Create(&company).Error; err != nil {
		return fmt.Errorf("seed company: %w", err)
	}

	job := domain.Job{
		Title: "Senior Backend Engineer",
		Description: "Backend engineer with focus on Go, MySQL, message queues, " +
			"and AI/LLM integration. Experience with RESTful APIs, database management, " +
			"cloud technologies, and building scalable systems is required.",
		Requirements: "5+ years backend development, production Go experience, cloud deployment",
		Location:     "Remote",
		IsOpen:       true,
		RecruiterID:  "seed-recruiter",
		CompanyID:    company.ID,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&job).Error; err != nil {
		return fmt.Errorf("seed job: %w", err)
	}

	s.logger.Info("seeded demo company and job", zap.Uint("job_id", job.ID))
	return nil
}
