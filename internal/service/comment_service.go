package service

import (
	"context"
	"errors"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

var ErrNotCommentOwner = errors.New("only the author may modify this comment")

// CommentService owns product comments. Mutations are restricted to the
// comment's author.
type CommentService interface {
	Create(ctx context.Context, userID, productID uuid.UUID, body string) (*domain.Comment, error)
	Update(ctx context.Context, userID, commentID uuid.UUID, body string) (*domain.Comment, error)
	Delete(ctx context.Context, userID, commentID uuid.UUID) error
	Get(ctx context.Context, commentID uuid.UUID) (*domain.Comment, error)
	List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(commentRepo repository.CommentRepository, productRepo repository.ProductRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		productRepo: productRepo,
	}
}

// Create adds a comment authored by userID
func (s *commentService) Create(ctx context.Context, userID, productID uuid.UUID, body string) (*domain.Comment, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Update rewrites the body; non-authors are rejected
func (s *commentService) Update(ctx context.Context, userID, commentID uuid.UUID, body string) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrNotCommentOwner
	}

	comment.Body = body
	comment.UpdatedAt = time.Now()

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Delete removes a comment; non-authors are rejected
func (s *commentService) Delete(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrNotCommentOwner
	}

	return s.commentRepo.Delete(ctx, commentID)
}

// Get retrieves a single comment
func (s *commentService) Get(ctx context.Context, commentID uuid.UUID) (*domain.Comment, error) {
	return s.commentRepo.FindByID(ctx, commentID)
}

// List retrieves comments, oldest first
func (s *commentService) List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error) {
	return s.commentRepo.List(ctx, productID, page, pageSize)
}
