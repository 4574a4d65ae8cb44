// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dota2classic/matchmaker/pkg/models"
)

// GormStores bundles the postgres-backed implementations of the three
// store interfaces over a single gorm handle.
type GormStores struct {
	Parties  *GormPartyStore
	Rooms    *GormRoomStore
	Settings *GormQueueSettingsStore
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{
		Parties:  &GormPartyStore{db: db},
		Rooms:    &GormRoomStore{db: db},
		Settings: &GormQueueSettingsStore{db: db},
	}
}

// AutoMigrate creates the relational shape: party, player_in_party, room,
// player_in_room, queue_settings.
func (s *GormStores) AutoMigrate() error {
	return s.Parties.db.AutoMigrate(
		&models.Party{},
		&models.PlayerInParty{},
		&models.Room{},
		&models.PlayerInRoom{},
		&models.QueueSettings{},
	)
}

type GormPartyStore struct {
	db *gorm.DB
}

func (s *GormPartyStore) ByID(ctx context.Context, id string) (*models.Party, error) {
	var party models.Party
	err := s.db.WithContext(ctx).Preload("Players").First(&party, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (s *GormPartyStore) BySteamID(ctx context.Context, steamID string) (*models.Party, error) {
	var membership models.PlayerInParty
	err := s.db.WithContext(ctx).First(&membership, "steam_id = ?", steamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, membership.PartyID)
}

func (s *GormPartyStore) Save(ctx context.Context, party *models.Party) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Players").Save(party).Error; err != nil {
			return err
		}
		for i := range party.Players {
			if err := tx.Save(&party.Players[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormPartyStore) InQueue(ctx context.Context) ([]models.Party, error) {
	var parties []models.Party
	err := s.db.WithContext(ctx).
		Preload("Players").
		Where("in_queue = ?", true).
		Find(&parties).Error
	return parties, err
}

func (s *GormPartyStore) EnterQueue(ctx context.Context, partyID string, modes models.ModeList, at time.Time) (*models.Party, error) {
	var party *models.Party
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Party
		if err := tx.Preload("Players").First(&p, "id = ?", partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		p.InQueue = true
		p.QueueModes = modes
		if p.EnterQueueAt == nil {
			p.EnterQueueAt = &at
		}
		if err := tx.Omit("Players").Save(&p).Error; err != nil {
			return err
		}
		party = &p
		return nil
	})
	return party, err
}

func (s *GormPartyStore) LeaveQueue(ctx context.Context, partyIDs []string, permanent bool) error {
	if len(partyIDs) == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"in_queue":    false,
		"queue_modes": models.ModeList{},
	}
	if permanent {
		updates["enter_queue_time"] = nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id IN ?", partyIDs).
		Updates(updates).Error
}

func (s *GormPartyStore) DeleteEmpty(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM player_in_party pip WHERE pip.party_id = party.id)").
		Delete(&models.Party{})
	return result.RowsAffected, result.Error
}

type GormRoomStore struct {
	db *gorm.DB
}

func (s *GormRoomStore) Create(ctx context.Context, room *models.Room) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Players").Create(room).Error; err != nil {
			return err
		}
		for i := range room.Players {
			if err := tx.Create(&room.Players[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		return ErrPlayerAlreadySeated
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique violations
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

func (s *GormRoomStore) ByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Preload("Players").First(&room, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomStore) SetPlayerState(ctx context.Context, roomID, steamID string, state models.ReadyState) error {
	return s.db.WithContext(ctx).
		Model(&models.PlayerInRoom{}).
		Where("room_id = ? AND steam_id = ?", roomID, steamID).
		Update("ready_state", state).Error
}

func (s *GormRoomStore) SetAllPlayersState(ctx context.Context, roomID string, from, to models.ReadyState) error {
	return s.db.WithContext(ctx).
		Model(&models.PlayerInRoom{}).
		Where("room_id = ? AND ready_state = ?", roomID, from).
		Update("ready_state", to).Error
}

func (s *GormRoomStore) Finish(ctx context.Context, roomID string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ? AND ready_check_finished_at IS NULL", roomID).
		Update("ready_check_finished_at", at)
	return result.RowsAffected > 0, result.Error
}

func (s *GormRoomStore) Delete(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&models.PlayerInRoom{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, "id = ?", roomID).Error
	})
}

func (s *GormRoomStore) Expired(ctx context.Context, cutoff time.Time) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).
		Preload("Players").
		Where("ready_check_finished_at IS NULL AND ready_check_started_at < ?", cutoff).
		Find(&rooms).Error
	return rooms, err
}

func (s *GormRoomStore) SeatedSteamIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.PlayerInRoom{}).
		Pluck("steam_id", &ids).Error
	return ids, err
}

type GormQueueSettingsStore struct {
	db *gorm.DB
}

func (s *GormQueueSettingsStore) All(ctx context.Context) ([]models.QueueSettings, error) {
	var settings []models.QueueSettings
	err := s.db.WithContext(ctx).Order("mode asc").Find(&settings).Error
	return settings, err
}

func (s *GormQueueSettingsStore) SetInProgress(ctx context.Context, mode models.MatchmakingMode, inProgress bool) error {
	return s.db.WithContext(ctx).
		Model(&models.QueueSettings{}).
		Where("mode = ?", mode).
		Update("in_progress", inProgress).Error
}

func (s *GormQueueSettingsStore) FinishCycle(ctx context.Context, mode models.MatchmakingMode, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.QueueSettings{}).
		Where("mode = ?", mode).
		Updates(map[string]interface{}{
			"in_progress":          false,
			"last_check_timestamp": at,
		}).Error
}

func (s *GormQueueSettingsStore) ResetInProgress(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.QueueSettings{}).
		Where("in_progress = ?", true).
		Update("in_progress", false)
	return result.RowsAffected, result.Error
}

var (
	_ PartyStore         = (*GormPartyStore)(nil)
	_ RoomStore          = (*GormRoomStore)(nil)
	_ QueueSettingsStore = (*GormQueueSettingsStore)(nil)
)
