package services

import (
	"context"
	"errors"
	"fmt"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/models"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A prompt belongs to a category when it is linked by id, or, for prompts
// created before the category existed, when its category name matches.
const promptCountSubquery = "(SELECT COUNT(*) FROM prompts WHERE prompts.category_id = categories.id" +
	" OR (prompts.category_id IS NULL AND prompts.category = categories.name))"

// CategoryWithCount is a category annotated with its live prompt count.
type CategoryWithCount struct {
	models.Category
	PromptCount int64
}

type CategoryInput struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

type CategoryService struct {
	store *database.Store
}

func NewCategoryService(store *database.Store) *CategoryService {
	return &CategoryService{store: store}
}

// ListCategories returns every category sorted by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var rows []CategoryWithCount
	if err := db.Model(&models.Category{}).
		Select("categories.*, " + promptCountSubquery + " AS prompt_count").
		Order("categories.name asc").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return rows, nil
}

// CreateCategory requires a unique, non-empty name. Newly created categories
// adopt existing prompts that already carry the same category name.
func (s *CategoryService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        strings.TrimSpace(*input.Name),
		Description: nonEmpty(input.Description),
		Color:       nonEmpty(input.Color),
		Icon:        nonEmpty(input.Icon),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		exists, err := categoryNameTaken(tx, category.Name, "")
		if err != nil {
			return err
		}
		if exists {
			return ErrCategoryExists
		}

		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCategoryExists
			}
			return fmt.Errorf("create category: %w", err)
		}

		return tx.Model(&models.Prompt{}).
			Where("category_id IS NULL AND category = ?", category.Name).
			UpdateColumn("category_id", category.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func categoryNameTaken(tx *gorm.DB, name, exceptID string) (bool, error) {
	query := tx.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

// UpdateCategory applies a partial update. A rename is propagated to the
// category name stored on linked prompts.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*models.Category, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", ErrInvalidInput)
	}

	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("find category: %w", err)
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			taken, err := categoryNameTaken(tx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrCategoryExists
			}
			updates["name"] = name
		}
		if input.Description != nil {
			updates["description"] = nonEmpty(input.Description)
		}
		if input.Color != nil {
			updates["color"] = nonEmpty(input.Color)
		}
		if input.Icon != nil {
			updates["icon"] = nonEmpty(input.Icon)
		}

		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCategoryExists
			}
			return fmt.Errorf("update category: %w", err)
		}

		if name, ok := updates["name"]; ok {
			if err := tx.Model(&models.Prompt{}).
				Where("category_id = ?", id).
				UpdateColumn("category", name).Error; err != nil {
				return fmt.Errorf("rename prompt categories: %w", err)
			}
		}

		return tx.First(&category, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory refuses to delete a category that still has prompts. The
// category row is locked before prompts are counted; prompt writers share-lock
// it while linking, so no prompt can be filed under it between count and delete.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := lockCategory(tx, id).Take(&models.Category{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("lock category: %w", err)
		}

		var row CategoryWithCount
		err := tx.Model(&models.Category{}).
			Select("categories.*, "+promptCountSubquery+" AS prompt_count").
			Where("categories.id = ?", id).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("find category: %w", err)
		}

		if row.PromptCount > 0 {
			return ErrCategoryInUse
		}

		if err := tx.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func lockCategory(tx *gorm.DB, id string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", id)
}

// CountCategories returns the total number of categories.
func (s *CategoryService) CountCategories(ctx context.Context) (int64, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&models.Category{}).Count(&count).Error
	return count, err
}

// SeedDefaults inserts the given categories when the table is empty.
func (s *CategoryService) SeedDefaults(ctx context.Context, defaults []models.Category) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := make([]models.Category, len(defaults))
	for i, c := range defaults {
		c.ID = ""
		seed[i] = c
	}
	return db.Create(&seed).Error
}
