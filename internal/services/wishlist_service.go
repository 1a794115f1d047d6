package services

import (
	"github.com/google/uuid"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewWishlistService(r *repos.WishlistRepo, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

// Save adds a product. Saving twice is not an error; created reports whether
// this call added it.
func (s *WishlistService) Save(userID, productID string) (item domain.WishlistItem, created bool, err error) {
	if _, err := s.Prods.Get(productID); err != nil {
		return item, false, notFoundOr(err, apperr.ProductNotFound(productID), "load product")
	}
	created, err = s.Repo.Add(uuid.NewString(), userID, productID)
	if err != nil {
		return item, false, apperr.Database("save wishlist item", err)
	}
	item, err = s.Repo.Get(userID, productID)
	if err != nil {
		return item, false, apperr.Database("load wishlist item", err)
	}
	return item, created, nil
}

func (s *WishlistService) Unsave(userID, productID string) error {
	err := s.Repo.Remove(userID, productID)
	return notFoundOr(err, apperr.NotFound("Product %s is not in your wishlist", productID), "remove wishlist item")
}

func (s *WishlistService) List(userID string) ([]domain.WishlistItem, error) {
	items, err := s.Repo.List(userID)
	return items, dbErr("list wishlist", err)
}
