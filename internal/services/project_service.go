package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/axellelanca/shortly/internal/errors"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/repository"
)

// ProjectService manages owner-scoped link groupings. Lower complexity than
// the link lifecycle but shares its store and ownership rules.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	linkRepo    repository.LinkRepository
}

// NewProjectService creates and returns a new instance of ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, linkRepo repository.LinkRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		linkRepo:    linkRepo,
	}
}

// CreateProject creates a project for userID. Project names are unique per owner.
func (s *ProjectService) CreateProject(name string, userID uint) (*models.Project, error) {
	_, err := s.projectRepo.GetProjectByNameAndUser(name, userID)
	if err == nil {
		return nil, apperrors.ErrDuplicateProject
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error checking project name: %w", err)
	}

	project := &models.Project{
		Name:   name,
		UserID: userID,
	}
	if err := s.projectRepo.CreateProject(project); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateProject
		}
		return nil, err
	}
	return project, nil
}

// GetProject returns a project owned by userID with its links preloaded.
// Projects belonging to other users are indistinguishable from missing ones.
func (s *ProjectService) GetProject(projectID, userID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetProjectByIDAndUser(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to look up project: %w", err)
	}
	return project, nil
}

// AddLinkToProject associates an existing link with an existing project. The
// requester must own both; a link owned by someone else (or by nobody) reads
// as not found rather than forbidden, so ownership is not probeable.
func (s *ProjectService) AddLinkToProject(projectID uint, shortCode string, userID uint) error {
	project, err := s.projectRepo.GetProjectByIDAndUser(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProjectNotFound
		}
		return fmt.Errorf("failed to look up project: %w", err)
	}

	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLinkNotFound
		}
		return fmt.Errorf("failed to look up link: %w", err)
	}
	if link.UserID == nil || *link.UserID != userID {
		return apperrors.ErrLinkNotFound
	}

	exists, err := s.projectRepo.HasLink(project.ID, link.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrDuplicateProjectLink
	}

	return s.projectRepo.AddLink(project, link)
}
