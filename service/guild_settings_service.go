package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"krypton/models"
)

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	uowFactory UnitOfWorkFactory
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(uowFactory UnitOfWorkFactory) GuildSettingsService {
	return &guildSettingsService{uowFactory: uowFactory}
}

// GetOrCreateSettings retrieves guild settings or creates defaults if not found
func (s *guildSettingsService) GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// getOrCreateSettings loads a guild's settings inside an existing unit of
// work, persisting defaults on first sight so later reads see a row.
func getOrCreateSettings(ctx context.Context, uow UnitOfWork, guildID int64) (*models.GuildSettings, error) {
	repo := uow.GuildRepository()

	guild, err := repo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if guild != nil {
		return guild.Settings, nil
	}

	guild = &models.Guild{
		GuildID:  guildID,
		Settings: models.DefaultGuildSettings(),
	}
	if err := repo.Upsert(ctx, guild); err != nil {
		return nil, err
	}

	log.WithField("guildID", guildID).Info("Created default guild settings")
	return guild.Settings, nil
}

// UpdateSetting assigns one dot-path addressed option and returns the
// updated document. Sibling settings keep their values.
func (s *guildSettingsService) UpdateSetting(ctx context.Context, guildID int64, path string, value any) (*models.GuildSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return nil, err
	}

	if err := settings.SetByPath(path, value); err != nil {
		return nil, err
	}

	if err := uow.GuildRepository().Upsert(ctx, &models.Guild{GuildID: guildID, Settings: settings}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"path":    path,
	}).Info("Guild setting updated")

	return settings, nil
}

// UpdateSettings replaces the whole settings document
func (s *guildSettingsService) UpdateSettings(ctx context.Context, guildID int64, settings *models.GuildSettings) error {
	if settings == nil {
		return models.NewValidationError("settings", "must not be nil")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.GuildRepository().Upsert(ctx, &models.Guild{GuildID: guildID, Settings: settings}); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
