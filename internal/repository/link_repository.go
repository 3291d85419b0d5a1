package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/axellelanca/shortly/internal/models"
	"gorm.io/gorm"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données
type LinkRepository interface {
	CreateLink(link *models.Link) error
	GetLinkByShortCode(shortCode string) (*models.Link, error)
	GetActiveLinkByShortCode(shortCode string) (*models.Link, error)
	FindActiveByCodeOrAlias(value string) (*models.Link, error)
	FindActiveByOriginalURL(originalURL string) ([]models.Link, error)
	FindExpired(now time.Time) ([]models.Link, error)
	UpdateOriginalURL(linkID uint, originalURL string) error
	RecordAccess(link *models.Link, at time.Time) error
	DeleteLink(link *models.Link) error
	ArchiveLink(link *models.Link, archivedAt time.Time) error
	GetArchivedByUserID(userID uint) ([]models.ArchivedLink, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// IsUniqueViolation reports whether err comes from a violated unique index.
// The sqlite driver doesn't always translate to gorm.ErrDuplicatedKey, so the
// constraint message is checked as a fallback.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateLink insère un nouveau lien dans la base de données.
func (r *GormLinkRepository) CreateLink(link *models.Link) error {
	if err := r.db.Create(link).Error; err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByShortCode récupère un lien en utilisant son shortCode, actif ou non.
func (r *GormLinkRepository) GetLinkByShortCode(shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// GetActiveLinkByShortCode récupère un lien actif par son shortCode.
// C'est la requête du chemin de redirection.
func (r *GormLinkRepository) GetActiveLinkByShortCode(shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("short_code = ? AND is_active = ?", shortCode, true).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindActiveByCodeOrAlias cherche un lien actif dont le shortCode OU l'alias
// correspond à la valeur donnée. Utilisé pour la détection de conflit d'alias.
func (r *GormLinkRepository) FindActiveByCodeOrAlias(value string) (*models.Link, error) {
	var link models.Link
	err := r.db.Where("(short_code = ? OR custom_alias = ?) AND is_active = ?", value, value, true).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindActiveByOriginalURL récupère tous les liens actifs pointant exactement
// vers l'URL donnée (pas de normalisation).
func (r *GormLinkRepository) FindActiveByOriginalURL(originalURL string) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Where("original_url = ? AND is_active = ?", originalURL, true).Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search links by URL: %w", err)
	}
	return links, nil
}

// FindExpired récupère les liens actifs dont l'expiration est passée.
// Utilisé par le sweeper d'archivage.
func (r *GormLinkRepository) FindExpired(now time.Time) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Where("expires_at IS NOT NULL AND expires_at < ? AND is_active = ?", now, true).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired links: %w", err)
	}
	return links, nil
}

// UpdateOriginalURL remplace l'URL cible d'un lien.
func (r *GormLinkRepository) UpdateOriginalURL(linkID uint, originalURL string) error {
	err := r.db.Model(&models.Link{}).Where("id = ?", linkID).
		Update("original_url", originalURL).Error
	if err != nil {
		return fmt.Errorf("failed to update link %d: %w", linkID, err)
	}
	return nil
}

// RecordAccess incrémente le compteur de clics et met à jour last_accessed.
func (r *GormLinkRepository) RecordAccess(link *models.Link, at time.Time) error {
	err := r.db.Model(link).Updates(map[string]interface{}{
		"clicks":        gorm.Expr("clicks + 1"),
		"last_accessed": at,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to record access for link %d: %w", link.ID, err)
	}
	link.Clicks++
	link.LastAccessed = &at
	return nil
}

// DeleteLink supprime un lien actif ainsi que ses associations de projets.
func (r *GormLinkRepository) DeleteLink(link *models.Link) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(link).Association("Projects").Clear(); err != nil {
			return fmt.Errorf("failed to clear project associations for link %d: %w", link.ID, err)
		}
		if err := tx.Delete(link).Error; err != nil {
			return fmt.Errorf("failed to delete link %d: %w", link.ID, err)
		}
		return nil
	})
}

// ArchiveLink copie un lien expiré dans la table d'archive puis le supprime de
// la table active, le tout dans une seule transaction. Une requête concurrente
// ne peut donc jamais observer un lien "archivé mais encore actif".
func (r *GormLinkRepository) ArchiveLink(link *models.Link, archivedAt time.Time) error {
	archived := &models.ArchivedLink{
		OriginalURL:  link.OriginalURL,
		ShortCode:    link.ShortCode,
		CustomAlias:  link.CustomAlias,
		CreatedAt:    link.CreatedAt,
		ExpiresAt:    link.ExpiresAt,
		Clicks:       link.Clicks,
		LastAccessed: link.LastAccessed,
		UserID:       link.UserID,
		ArchivedAt:   archivedAt,
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(archived).Error; err != nil {
			return fmt.Errorf("failed to create archive record for link %d: %w", link.ID, err)
		}
		if err := tx.Model(link).Association("Projects").Clear(); err != nil {
			return fmt.Errorf("failed to clear project associations for link %d: %w", link.ID, err)
		}
		if err := tx.Delete(link).Error; err != nil {
			return fmt.Errorf("failed to delete archived link %d: %w", link.ID, err)
		}
		return nil
	})
}

// GetArchivedByUserID récupère les liens archivés d'un utilisateur, les plus
// récents en premier.
func (r *GormLinkRepository) GetArchivedByUserID(userID uint) ([]models.ArchivedLink, error) {
	var archived []models.ArchivedLink
	err := r.db.Where("user_id = ?", userID).Order("archived_at DESC").Find(&archived).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list archived links for user %d: %w", userID, err)
	}
	return archived, nil
}
