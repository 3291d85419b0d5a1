package repository

import (
	"fmt"

	"github.com/axellelanca/shortly/internal/models"
	"gorm.io/gorm"
)

// ProjectRepository est une interface qui définit les méthodes d'accès aux données
type ProjectRepository interface {
	CreateProject(project *models.Project) error
	GetProjectByIDAndUser(projectID, userID uint) (*models.Project, error)
	GetProjectByNameAndUser(name string, userID uint) (*models.Project, error)
	HasLink(projectID, linkID uint) (bool, error)
	AddLink(project *models.Project, link *models.Link) error
}

// GormProjectRepository est l'implémentation de ProjectRepository utilisant GORM.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository crée et retourne une nouvelle instance de GormProjectRepository.
func NewProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateProject insère un nouveau projet dans la base de données.
func (r *GormProjectRepository) CreateProject(project *models.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProjectByIDAndUser récupère un projet appartenant à l'utilisateur donné,
// avec ses liens préchargés.
func (r *GormProjectRepository) GetProjectByIDAndUser(projectID, userID uint) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Links").
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectByNameAndUser récupère un projet par son nom pour un utilisateur donné.
func (r *GormProjectRepository) GetProjectByNameAndUser(name string, userID uint) (*models.Project, error) {
	var project models.Project
	err := r.db.Where("name = ? AND user_id = ?", name, userID).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// HasLink vérifie si une association lien-projet existe déjà.
func (r *GormProjectRepository) HasLink(projectID, linkID uint) (bool, error) {
	var count int64
	err := r.db.Table("link_project_associations").
		Where("project_id = ? AND link_id = ?", projectID, linkID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check project-link association: %w", err)
	}
	return count > 0, nil
}

// AddLink associe un lien existant à un projet existant.
func (r *GormProjectRepository) AddLink(project *models.Project, link *models.Link) error {
	if err := r.db.Model(project).Association("Links").Append(link); err != nil {
		return fmt.Errorf("failed to add link %d to project %d: %w", link.ID, project.ID, err)
	}
	return nil
}
