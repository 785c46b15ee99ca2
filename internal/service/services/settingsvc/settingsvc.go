package settingsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/isettingrepo"
	"github.com/corray333/backend-labs/shop/internal/service/errs"
)

// SettingsService reads and writes process-wide key/value settings.
type SettingsService struct {
	settingRepo  isettingrepo.ISettingRepository
	queryTimeout time.Duration
}

// option is a function that configures the SettingsService.
type option func(*SettingsService)

// MustNewSettingsService creates a new SettingsService.
func MustNewSettingsService(opts ...option) *SettingsService {
	s := &SettingsService{queryTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	if s.settingRepo == nil {
		panic("settingsvc: setting repository is not configured")
	}

	return s
}

// WithSettingRepository sets the repository for the SettingsService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSettingRepository(repo isettingrepo.ISettingRepository) option {
	return func(s *SettingsService) {
		s.settingRepo = repo
	}
}

// WithTimeouts bounds every settings query.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeouts(cfg config.PostgresConfig) option {
	return func(s *SettingsService) {
		if cfg.QueryTimeout > 0 {
			s.queryTimeout = cfg.QueryTimeout
		}
	}
}

// Get returns the value stored under key. A missing key is reported as
// ok == false with a nil error.
func (s *SettingsService) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	value, err := s.settingRepo.Get(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

// Set stores value under key, replacing the previous value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty setting key", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
		return err
	}

	slog.Info("Setting saved", "key", key)

	return nil
}
