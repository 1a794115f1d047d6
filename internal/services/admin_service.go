package services

import "shopfront/internal/repos"

// PopularLimit is how many best sellers the dashboard shows.
const PopularLimit = 10

type AdminService struct {
	Orders *repos.OrderRepo
}

func NewAdminService(orders *repos.OrderRepo) *AdminService { return &AdminService{Orders: orders} }

func (s *AdminService) Stats() (repos.Stats, error) {
	st, err := s.Orders.Stats(PopularLimit)
	return st, dbErr("load stats", err)
}
