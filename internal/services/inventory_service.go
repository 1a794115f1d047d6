package services

import (
	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

// DefaultLowStock is the admin inventory threshold when none is given.
const DefaultLowStock = 5

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(productID)
	if err != nil {
		return domain.Availability{}, notFoundOr(err, apperr.ProductNotFound(productID), "load stock")
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= DefaultLowStock:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

type InventoryReport struct {
	Threshold int                  `json:"low_stock_threshold"`
	Products  []repos.InventoryRow `json:"products"`
	LowStock  []repos.InventoryRow `json:"low_stock"`
}

// Report lists every product by ascending stock and picks out those below
// threshold.
func (s *InventoryService) Report(threshold int) (InventoryReport, error) {
	if threshold < 0 {
		threshold = DefaultLowStock
	}
	rows, err := s.Inv.ListAll()
	if err != nil {
		return InventoryReport{}, apperr.Database("list inventory", err)
	}
	low := []repos.InventoryRow{}
	for _, r := range rows {
		if r.Stock < threshold {
			low = append(low, r)
		}
	}
	return InventoryReport{Threshold: threshold, Products: rows, LowStock: low}, nil
}

// SetStock overwrites a product's stock (admin correction).
func (s *InventoryService) SetStock(productID string, qty int) error {
	if qty < 0 {
		return apperr.Validation("stock", "Stock must be greater than or equal to 0")
	}
	return notFoundOr(s.Inv.SetQty(productID, qty), apperr.ProductNotFound(productID), "set stock")
}
