package service

import (
	"context"
	"io"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const productImageDir = "products"

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	VoucherEnabled  bool
	VoucherQuantity int
	// CategoryIDs replaces the category memberships; nil leaves them alone.
	CategoryIDs []uuid.UUID
}

// UploadFile is one file of a multi-file upload request.
type UploadFile struct {
	Name    string
	Caption string
	Reader  io.Reader
}

// UploadResult reports the outcome for one uploaded file. Uploads are
// best-effort: valid files are stored even when others in the same request
// fail, and each entry says what happened.
type UploadResult struct {
	FileName string               `json:"file_name"`
	Image    *domain.ProductImage `json:"image,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// ProductService owns product CRUD, the view counter, and the image gallery.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// GetDetail loads a product with categories and images. When countView
	// is set the view counter is bumped atomically as part of the read.
	GetDetail(ctx context.Context, id uuid.UUID, countView bool) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	MostViewed(ctx context.Context, limit int) ([]*domain.Product, error)
	Latest(ctx context.Context, limit int) ([]*domain.Product, error)
	UploadImages(ctx context.Context, productID uuid.UUID, files []UploadFile) ([]UploadResult, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	UpdateThumbnail(ctx context.Context, productID uuid.UUID, file UploadFile) (*domain.Product, error)

	LockForEdit(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error)
	MaintainEditLock(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error)
	ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error
	ReleaseMyLocks(ctx context.Context, userID uuid.UUID) (int, error)
}

type productService struct {
	productRepo repository.ProductRepository
	imageRepo   repository.ImageRepository
	media       *storage.MediaStore
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	imageRepo repository.ImageRepository,
	media *storage.MediaStore,
) ProductService {
	return &productService{
		productRepo: productRepo,
		imageRepo:   imageRepo,
		media:       media,
	}
}

// Create inserts a product with its category memberships
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:              uuid.New(),
		Name:            input.Name,
		Slug:            Slugify(input.Name),
		Description:     input.Description,
		Price:           input.Price,
		VoucherEnabled:  input.VoucherEnabled,
		VoucherQuantity: input.VoucherQuantity,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.productRepo.Create(ctx, product, input.CategoryIDs); err != nil {
		return nil, err
	}

	product.Categories, _ = s.productRepo.FindCategories(ctx, product.ID)
	return product, nil
}

// Update rewrites product fields and, when CategoryIDs is non-nil, replaces
// the category memberships
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != product.Name {
		product.Slug = Slugify(input.Name)
	}
	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.VoucherEnabled = input.VoucherEnabled
	product.VoucherQuantity = input.VoucherQuantity
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product, input.CategoryIDs); err != nil {
		return nil, err
	}

	return s.loadRelations(ctx, product)
}

// Delete removes a product; images and memberships cascade in the database
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	images, err := s.imageRepo.ListByProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	for _, image := range images {
		s.media.Remove(image.FilePath)
	}

	return nil
}

func (s *productService) GetDetail(ctx context.Context, id uuid.UUID, countView bool) (*domain.Product, error) {
	var product *domain.Product
	var err error

	if countView {
		product, err = s.productRepo.IncrementViewCount(ctx, id)
	} else {
		product, err = s.productRepo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	return s.loadRelations(ctx, product)
}

func (s *productService) loadRelations(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	categories, err := s.productRepo.FindCategories(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	images, err := s.imageRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	product.Categories = categories
	product.Images = images
	return product, nil
}

// List retrieves products with filtering, pagination, and sorting
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, filter)
}

// MostViewed retrieves the top products by view count
func (s *productService) MostViewed(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.productRepo.MostViewed(ctx, limit)
}

// Latest retrieves the most recently created products
func (s *productService) Latest(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.productRepo.Latest(ctx, limit)
}

// UploadImages stores each file and creates one product_images row per
// stored file. One bad file does not abort the rest.
func (s *productService) UploadImages(ctx context.Context, productID uuid.UUID, files []UploadFile) ([]UploadResult, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		path, err := s.media.Save(productImageDir, file.Name, file.Reader)
		if err != nil {
			results = append(results, UploadResult{FileName: file.Name, Error: err.Error()})
			continue
		}

		image := &domain.ProductImage{
			ID:        uuid.New(),
			ProductID: productID,
			FilePath:  path,
			Caption:   file.Caption,
			CreatedAt: time.Now(),
		}
		if err := s.imageRepo.Create(ctx, image); err != nil {
			s.media.Remove(path)
			results = append(results, UploadResult{FileName: file.Name, Error: err.Error()})
			continue
		}

		results = append(results, UploadResult{FileName: file.Name, Image: image})
	}

	return results, nil
}

// DeleteImage removes an image that belongs to the product
func (s *productService) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	image, err := s.imageRepo.FindByIDAndProduct(ctx, imageID, productID)
	if err != nil {
		return err
	}

	if err := s.imageRepo.Delete(ctx, image.ID); err != nil {
		return err
	}

	return s.media.Remove(image.FilePath)
}

// UpdateThumbnail stores the new thumbnail and drops the old file
func (s *productService) UpdateThumbnail(ctx context.Context, productID uuid.UUID, file UploadFile) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	path, err := s.media.Save(productImageDir, file.Name, file.Reader)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateThumbnail(ctx, productID, path); err != nil {
		s.media.Remove(path)
		return nil, err
	}

	if product.ThumbnailPath != "" {
		s.media.Remove(product.ThumbnailPath)
	}

	product.ThumbnailPath = path
	return s.loadRelations(ctx, product)
}

func (s *productService) LockForEdit(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error) {
	return s.productRepo.AcquireEditLock(ctx, id, userID, EditLockTTL)
}

func (s *productService) MaintainEditLock(ctx context.Context, id, userID uuid.UUID) (*domain.EditLock, error) {
	return s.productRepo.ExtendEditLock(ctx, id, userID, EditLockTTL)
}

func (s *productService) ReleaseEditLock(ctx context.Context, id, userID uuid.UUID) error {
	return s.productRepo.ReleaseEditLock(ctx, id, userID)
}

func (s *productService) ReleaseMyLocks(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.productRepo.ReleaseAllEditLocks(ctx, userID)
}
