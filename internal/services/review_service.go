package services

import (
	"strings"

	"github.com/google/uuid"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
	"shopfront/internal/validate"
)

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
	Catalog *CatalogService
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo, catalog *CatalogService) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders, Catalog: catalog}
}

func (s *ReviewService) List(productID string, pg Page) ([]domain.Review, Pagination, error) {
	if _, err := s.Catalog.GetProduct(productID); err != nil {
		return nil, Pagination{}, err
	}
	items, total, err := s.Reviews.ListByProduct(productID, pg.Limit(), pg.Offset())
	if err != nil {
		return nil, Pagination{}, apperr.Database("list reviews", err)
	}
	return items, pg.Of(total), nil
}

// Create records a review. Only buyers of the product may review it, once.
func (s *ReviewService) Create(user *domain.User, productID string, in ReviewInput) (domain.Review, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.Catalog.GetProduct(productID); err != nil {
		return domain.Review{}, err
	}
	bought, err := s.Orders.HasPurchased(user.ID, productID)
	if err != nil {
		return domain.Review{}, apperr.Database("check purchase", err)
	}
	if !bought {
		return domain.Review{}, apperr.Validation("product_id", "You can only review products you have purchased")
	}
	rv := domain.Review{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		ProductID:  productID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
		AuthorName: user.FirstName,
	}
	if err := s.Reviews.Create(&rv); err != nil {
		if isDuplicate(err) {
			return domain.Review{}, apperr.Conflict("You have already reviewed this product")
		}
		return domain.Review{}, apperr.Database("create review", err)
	}
	return rv, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *ReviewService) Delete(actor *domain.User, productID, reviewID string) error {
	rv, err := s.Reviews.Get(reviewID)
	nf := apperr.NotFound("Review with ID %s not found", reviewID)
	if err != nil {
		return notFoundOr(err, nf, "load review")
	}
	if rv.ProductID != productID {
		return nf
	}
	if !actor.IsAdmin() && rv.UserID != actor.ID {
		return apperr.Forbidden("Not authorized to delete this review")
	}
	return notFoundOr(s.Reviews.Delete(reviewID), nf, "delete review")
}
