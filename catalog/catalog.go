// Package catalog resolves product, additive and order-add-on definitions
// with their restaurant-specific prices and stop-list flags. Pure read.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

type ProductInfo struct {
	ProductID uint
	Name      string
	Price     int64
	Stopped   bool
}

type AdditiveInfo struct {
	AdditiveID uint
	Name       string
	Price      int64
	Stopped    bool
}

type AddOnInfo struct {
	DefID     uint
	Name      string
	Mode      models.AddOnMode
	UnitPrice int64
	Active    bool
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Products batch-resolves products for a restaurant. Every requested id must
// resolve to a product with a restaurant price row, otherwise NotFound names
// the missing ids.
func (s *Service) Products(ctx context.Context, restaurantID uint, ids []uint) (map[uint]ProductInfo, error) {
	if len(ids) == 0 {
		return map[uint]ProductInfo{}, nil
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, apperr.Internal(err, "catalog product lookup failed")
	}
	var prices []models.RestaurantProduct
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND product_id IN ?", restaurantID, ids).
		Find(&prices).Error; err != nil {
		return nil, apperr.Internal(err, "catalog price lookup failed")
	}

	priceByProduct := make(map[uint]models.RestaurantProduct, len(prices))
	for _, p := range prices {
		priceByProduct[p.ProductID] = p
	}
	result := make(map[uint]ProductInfo, len(products))
	for _, p := range products {
		rp, ok := priceByProduct[p.ID]
		if !ok {
			continue
		}
		result[p.ID] = ProductInfo{ProductID: p.ID, Name: p.Name, Price: rp.Price, Stopped: rp.Stopped}
	}
	if missing := missingIDs(ids, func(id uint) bool { _, ok := result[id]; return ok }); len(missing) > 0 {
		return nil, apperr.NotFound("products not found for restaurant %d: %s", restaurantID, missing)
	}
	return result, nil
}

// Additives batch-resolves additives with restaurant prices.
func (s *Service) Additives(ctx context.Context, restaurantID uint, ids []uint) (map[uint]AdditiveInfo, error) {
	if len(ids) == 0 {
		return map[uint]AdditiveInfo{}, nil
	}
	var additives []models.Additive
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&additives).Error; err != nil {
		return nil, apperr.Internal(err, "catalog additive lookup failed")
	}
	var prices []models.RestaurantAdditive
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND additive_id IN ?", restaurantID, ids).
		Find(&prices).Error; err != nil {
		return nil, apperr.Internal(err, "catalog additive price lookup failed")
	}

	priceByAdditive := make(map[uint]models.RestaurantAdditive, len(prices))
	for _, p := range prices {
		priceByAdditive[p.AdditiveID] = p
	}
	result := make(map[uint]AdditiveInfo, len(additives))
	for _, a := range additives {
		ra, ok := priceByAdditive[a.ID]
		if !ok {
			continue
		}
		result[a.ID] = AdditiveInfo{AdditiveID: a.ID, Name: a.Name, Price: ra.Price, Stopped: ra.Stopped}
	}
	if missing := missingIDs(ids, func(id uint) bool { _, ok := result[id]; return ok }); len(missing) > 0 {
		return nil, apperr.NotFound("additives not found for restaurant %d: %s", restaurantID, missing)
	}
	return result, nil
}

// AddOnDefs batch-resolves order-level add-on definitions.
func (s *Service) AddOnDefs(ctx context.Context, restaurantID uint, ids []uint) (map[uint]AddOnInfo, error) {
	if len(ids) == 0 {
		return map[uint]AddOnInfo{}, nil
	}
	var defs []models.OrderAddOnDef
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND id IN ?", restaurantID, ids).
		Find(&defs).Error; err != nil {
		return nil, apperr.Internal(err, "catalog add-on lookup failed")
	}
	result := make(map[uint]AddOnInfo, len(defs))
	for _, d := range defs {
		result[d.ID] = AddOnInfo{DefID: d.ID, Name: d.Name, Mode: d.Mode, UnitPrice: d.UnitPrice, Active: d.Active}
	}
	if missing := missingIDs(ids, func(id uint) bool { _, ok := result[id]; return ok }); len(missing) > 0 {
		return nil, apperr.NotFound("order add-ons not found for restaurant %d: %s", restaurantID, missing)
	}
	return result, nil
}

func missingIDs(ids []uint, found func(uint) bool) string {
	var missing []string
	for _, id := range ids {
		if !found(id) {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	return strings.Join(missing, ", ")
}
