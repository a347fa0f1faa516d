package service

import (
	"context"
	"errors"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// EditLockTTL is how long an edit lock is held without a heartbeat.
const EditLockTTL = 5 * time.Minute

var ErrCategoryCycle = errors.New("category cannot be its own ancestor")

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
}

// CategoryService owns the category tree: CRUD, the nested tree view, and
// the cycle-freedom invariant on parent assignment.
type CategoryService interface {
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, parentID *uuid.UUID, rootsOnly bool, page, pageSize int) ([]*domain.Category, int, error)
	GetTree(ctx context.Context) ([]*domain.CategoryNode, error)
	GetRoots(ctx context.Context) ([]*domain.Category, error)
	GetChildren(ctx context.Context, id uuid.UUID) ([]*domain.Category, error)
	GetProducts(ctx context.Context, id uuid.UUID) ([]*domain.Product, error)
	SetImage(ctx context.Context, id uuid.UUID, imagePath string) (*domain.Category, error)

	LockForEdit(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error)
	MaintainEditLock(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error)
	ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error
	ReleaseMyLocks(ctx context.Context, userID uuid.UUID) (int, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// Create inserts a category after checking the parent exists
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        Slugify(input.Name),
		Description: input.Description,
		ParentID:    input.ParentID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// Update rewrites the category. Parent reassignment is rejected when the new
// parent is the category itself or one of its descendants, which keeps the
// forest acyclic.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if err := s.checkNoCycle(ctx, id, *input.ParentID); err != nil {
			return nil, err
		}
	}

	if input.Name != category.Name {
		category.Slug = Slugify(input.Name)
	}
	category.Name = input.Name
	category.Description = input.Description
	category.ParentID = input.ParentID
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// checkNoCycle walks the ancestor chain of newParentID over an id->parent
// map loaded in one query. Finding id on that chain (or newParentID == id)
// means the assignment would close a cycle.
func (s *categoryService) checkNoCycle(ctx context.Context, id, newParentID uuid.UUID) error {
	if newParentID == id {
		return ErrCategoryCycle
	}

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	parents := make(map[uuid.UUID]*uuid.UUID, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}

	if _, ok := parents[newParentID]; !ok {
		return repository.ErrCategoryNotFound
	}

	current := newParentID
	// Bounded by the category count, so a pre-existing corrupt cycle
	// cannot loop forever.
	for range categories {
		parent := parents[current]
		if parent == nil {
			return nil
		}
		if *parent == id {
			return ErrCategoryCycle
		}
		current = *parent
	}

	return nil
}

// Delete removes a category; categories with children are rejected
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return repository.ErrCategoryHasChildren
	}

	// Product memberships go away with the join rows; the RESTRICT
	// constraint still backstops a concurrent child insert.
	return s.categoryRepo.Delete(ctx, id)
}

// Get retrieves a single category
func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

// List retrieves categories with optional parent filtering
func (s *categoryService) List(ctx context.Context, parentID *uuid.UUID, rootsOnly bool, page, pageSize int) ([]*domain.Category, int, error) {
	return s.categoryRepo.List(ctx, parentID, rootsOnly, page, pageSize)
}

// GetTree returns the whole forest as nested nodes. One query loads every
// category; the forest is assembled from a parent->children map and an
// explicit stack, so depth is not limited by the call stack.
func (s *categoryService) GetTree(ctx context.Context) ([]*domain.CategoryNode, error) {
	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*domain.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &domain.CategoryNode{
			ID:        c.ID,
			Name:      c.Name,
			Slug:      c.Slug,
			ParentID:  c.ParentID,
			Children:  []*domain.CategoryNode{},
			CreatedAt: c.CreatedAt,
		}
	}

	roots := []*domain.CategoryNode{}
	// ListAll is ordered by creation time, so children lists come out in
	// insertion order at every level.
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	return roots, nil
}

// GetRoots retrieves categories without a parent
func (s *categoryService) GetRoots(ctx context.Context) ([]*domain.Category, error) {
	roots, _, err := s.categoryRepo.List(ctx, nil, true, 1, 1000)
	return roots, err
}

// GetChildren retrieves the immediate children of a category
func (s *categoryService) GetChildren(ctx context.Context, id uuid.UUID) ([]*domain.Category, error) {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.categoryRepo.FindChildren(ctx, id)
}

// GetProducts retrieves the products directly assigned to a category
func (s *categoryService) GetProducts(ctx context.Context, id uuid.UUID) ([]*domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.productRepo.ListByCategory(ctx, id)
}

// SetImage records the stored image path on the category
func (s *categoryService) SetImage(ctx context.Context, id uuid.UUID, imagePath string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.ImagePath = imagePath
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *categoryService) LockForEdit(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error) {
	return s.categoryRepo.AcquireEditLock(ctx, id, userID, EditLockTTL)
}

func (s *categoryService) MaintainEditLock(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error) {
	return s.categoryRepo.ExtendEditLock(ctx, id, userID, EditLockTTL)
}

func (s *categoryService) ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error {
	return s.categoryRepo.ReleaseEditLock(ctx, id, userID)
}

func (s *categoryService) ReleaseMyLocks(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.categoryRepo.ReleaseAllEditLocks(ctx, userID)
}
