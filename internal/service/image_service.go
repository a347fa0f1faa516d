package service

import (
	"context"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"

	"github.com/google/uuid"
)

// ImageService is the standalone CRUD surface over product gallery images.
// Bulk per-product uploads go through ProductService.UploadImages.
type ImageService interface {
	Create(ctx context.Context, productID uuid.UUID, file UploadFile) (*domain.ProductImage, error)
	UpdateCaption(ctx context.Context, id uuid.UUID, caption string) (*domain.ProductImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error)
	List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.ProductImage, int, error)
}

type imageService struct {
	imageRepo   repository.ImageRepository
	productRepo repository.ProductRepository
	media       *storage.MediaStore
}

// NewImageService creates a new instance of ImageService
func NewImageService(imageRepo repository.ImageRepository, productRepo repository.ProductRepository, media *storage.MediaStore) ImageService {
	return &imageService{
		imageRepo:   imageRepo,
		productRepo: productRepo,
		media:       media,
	}
}

// Create stores the file and attaches it to the product
func (s *imageService) Create(ctx context.Context, productID uuid.UUID, file UploadFile) (*domain.ProductImage, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	path, err := s.media.Save(productImageDir, file.Name, file.Reader)
	if err != nil {
		return nil, err
	}

	image := &domain.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		FilePath:  path,
		Caption:   file.Caption,
		CreatedAt: time.Now(),
	}

	if err := s.imageRepo.Create(ctx, image); err != nil {
		// The row never existed, so the stored file is orphaned.
		s.media.Remove(path)
		return nil, err
	}

	return image, nil
}

// UpdateCaption rewrites the image caption; the file itself is immutable
func (s *imageService) UpdateCaption(ctx context.Context, id uuid.UUID, caption string) (*domain.ProductImage, error) {
	image, err := s.imageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	image.Caption = caption
	if err := s.imageRepo.Update(ctx, image); err != nil {
		return nil, err
	}

	return image, nil
}

// Delete removes the row and then the file
func (s *imageService) Delete(ctx context.Context, id uuid.UUID) error {
	image, err := s.imageRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.imageRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.media.Remove(image.FilePath)
	return nil
}

// Get retrieves a single image
func (s *imageService) Get(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error) {
	return s.imageRepo.FindByID(ctx, id)
}

// List retrieves images, optionally filtered by product
func (s *imageService) List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.ProductImage, int, error) {
	return s.imageRepo.List(ctx, productID, page, pageSize)
}
