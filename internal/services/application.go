package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/models"
	"jobtracker/pkg/utils"

	"gorm.io/gorm"
)

const msgApplicationNotFound = "Application not found"

var errInvalidDate = apperrors.Validation("Invalid date format. Use YYYY-MM-DD")

// columnLimits mirrors the varchar sizes in the schema.
var columnLimits = map[string]int{
	"company_name":   200,
	"position_title": 200,
	"location":       200,
	"job_type":       50,
	"job_level":      50,
	"status":         50,
}

func checkLength(column string, value *string) error {
	limit, ok := columnLimits[column]
	if !ok || value == nil || utf8.RuneCountInString(*value) <= limit {
		return nil
	}
	return apperrors.Validation(fmt.Sprintf("%s must be at most %d characters", column, limit))
}

type CreateApplicationDTO struct {
	UserID          *uint
	CompanyName     string
	PositionTitle   string
	Location        *string
	JobType         *string
	JobLevel        *string
	ApplicationDate string // empty means today
	Status          *string
	JobDescription  *string
	Notes           *string
}

// UpdateApplicationDTO only changes the fields whose Optional is Set.
type UpdateApplicationDTO struct {
	CompanyName     utils.Optional[string]
	PositionTitle   utils.Optional[string]
	Location        utils.Optional[string]
	JobType         utils.Optional[string]
	JobLevel        utils.Optional[string]
	ApplicationDate utils.Optional[string]
	Status          utils.Optional[string]
	JobDescription  utils.Optional[string]
	Notes           utils.Optional[string]
}

type ApplicationService struct {
	db     *gorm.DB
	store  DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewApplicationService(db *gorm.DB, store DocumentStore, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{
		db:     db,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every application, most recent application date first.
func (s *ApplicationService) List(ctx context.Context) ([]models.JobApplication, error) {
	apps := []models.JobApplication{}
	if err := s.db.WithContext(ctx).Order("application_date DESC").Order("id ASC").Find(&apps).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.JobApplication, error) {
	return findApplication(s.db.WithContext(ctx), id)
}

func (s *ApplicationService) Create(ctx context.Context, dto CreateApplicationDTO) (*models.JobApplication, error) {
	if dto.CompanyName == "" {
		return nil, apperrors.Validation("company_name is required")
	}
	if dto.PositionTitle == "" {
		return nil, apperrors.Validation("position_title is required")
	}
	for column, value := range map[string]*string{
		"company_name":   &dto.CompanyName,
		"position_title": &dto.PositionTitle,
		"location":       dto.Location,
		"job_type":       dto.JobType,
		"job_level":      dto.JobLevel,
		"status":         dto.Status,
	} {
		if err := checkLength(column, value); err != nil {
			return nil, err
		}
	}

	now := stampNow(s.now)
	applicationDate := utils.Today(now)
	if dto.ApplicationDate != "" {
		d, err := utils.ParseDate(dto.ApplicationDate)
		if err != nil {
			return nil, errInvalidDate
		}
		applicationDate = d
	}

	status := models.DefaultStatus
	if dto.Status != nil {
		status = *dto.Status
	}

	app := models.JobApplication{
		UserID:          dto.UserID,
		CompanyName:     dto.CompanyName,
		PositionTitle:   dto.PositionTitle,
		Location:        dto.Location,
		JobType:         dto.JobType,
		JobLevel:        dto.JobLevel,
		ApplicationDate: applicationDate,
		Status:          status,
		JobDescription:  dto.JobDescription,
		Notes:           dto.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var created *models.JobApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&app).Error; err != nil {
			return err
		}
		var err error
		created, err = findApplication(tx, app.ID)
		return err
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return created, nil
}

// Update applies a partial update. The payload is validated before the row is touched.
func (s *ApplicationService) Update(ctx context.Context, id uint, dto UpdateApplicationDTO) (*models.JobApplication, error) {
	var updated *models.JobApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findApplication(tx, id); err != nil {
			return err
		}

		changes, err := dto.changes()
		if err != nil {
			return err
		}
		changes["updated_at"] = stampNow(s.now)

		res := tx.Model(&models.JobApplication{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound(msgApplicationNotFound)
		}

		updated, err = findApplication(tx, id)
		return err
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return updated, nil
}

// Delete removes the row, then its stored documents. Failing to remove a
// file is logged and otherwise ignored.
func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	var app *models.JobApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if app, err = findApplication(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.JobApplication{}, id).Error
	})
	if err != nil {
		return wrapDBError(err)
	}

	for _, kind := range []models.DocumentKind{models.DocumentResume, models.DocumentCoverLetter} {
		if path, _, _ := app.Document(kind); path != nil {
			s.removeBestEffort(*path, id, kind)
		}
	}
	return nil
}

func (s *ApplicationService) removeBestEffort(path string, id uint, kind models.DocumentKind) {
	removeBestEffort(s.store, s.logger, path, id, kind)
}

func (dto UpdateApplicationDTO) changes() (map[string]interface{}, error) {
	changes := map[string]interface{}{}

	required := []struct {
		column string
		value  utils.Optional[string]
	}{
		{"company_name", dto.CompanyName},
		{"position_title", dto.PositionTitle},
	}
	for _, f := range required {
		if !f.value.Set {
			continue
		}
		if f.value.Null || f.value.Value == "" {
			return nil, apperrors.Validation(f.column + " cannot be empty")
		}
		if err := checkLength(f.column, &f.value.Value); err != nil {
			return nil, err
		}
		changes[f.column] = f.value.Value
	}

	if dto.Status.Set {
		if dto.Status.Null {
			return nil, apperrors.Validation("status cannot be null")
		}
		if err := checkLength("status", &dto.Status.Value); err != nil {
			return nil, err
		}
		changes["status"] = dto.Status.Value
	}

	if dto.ApplicationDate.Set {
		if dto.ApplicationDate.Null {
			return nil, errInvalidDate
		}
		d, err := utils.ParseDate(dto.ApplicationDate.Value)
		if err != nil {
			return nil, errInvalidDate
		}
		changes["application_date"] = d
	}

	nullable := []struct {
		column string
		value  utils.Optional[string]
	}{
		{"location", dto.Location},
		{"job_type", dto.JobType},
		{"job_level", dto.JobLevel},
		{"job_description", dto.JobDescription},
		{"notes", dto.Notes},
	}
	for _, f := range nullable {
		if !f.value.Set {
			continue
		}
		if f.value.Null {
			changes[f.column] = nil
			continue
		}
		if err := checkLength(f.column, &f.value.Value); err != nil {
			return nil, err
		}
		changes[f.column] = f.value.Value
	}

	return changes, nil
}

func findApplication(db *gorm.DB, id uint) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := db.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgApplicationNotFound)
		}
		return nil, apperrors.Persistence(err)
	}
	return &app, nil
}
