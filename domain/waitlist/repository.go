package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/clawsec-waitlist/internal/models"
	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// FindEntryByEmail returns (nil, nil) when no entry has the normalized email.
	FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	// CreateEntry inserts entry. A uniqueness violation is reported as ErrAlreadyOnWaitlist.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error
	// CountEntries returns the number of stored rows.
	CountEntries(ctx context.Context) (int64, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&entries).Error; err != nil {
		return nil, wrap(ErrBackendNotConfigured, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	return &entries[0], nil
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return wrap(ErrAlreadyOnWaitlist, err)
		}
		return wrap(ErrJoinFailed, err)
	}

	return nil
}

func (wr *waitlistRepository) CountEntries(ctx context.Context) (int64, error) {
	var count int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}

func (wr *waitlistRepository) Ping(ctx context.Context) error {
	sqlDB, err := wr.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
