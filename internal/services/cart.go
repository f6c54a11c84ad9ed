package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cardvault/cardvault/internal/metrics"
	"github.com/cardvault/cardvault/internal/models"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartService manages the storefront cart: one cart per user, one line per
// product, quantities merged on repeat adds.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetCart returns the user's cart with total and item count computed.
func (s *CartService) GetCart(ctx context.Context, userID string) (models.CartSummary, error) {
	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&items).Error
	if err != nil {
		return models.CartSummary{}, fmt.Errorf("failed to fetch cart for user %s: %w", userID, err)
	}

	return models.CartSummary{
		Items: items,
		Total: RoundMoney(CartTotal(items)),
		Count: CartCount(items),
	}, nil
}

// AddToCart adds a product to the cart, merging into an existing line for the
// same product.
func (s *CartService) AddToCart(ctx context.Context, userID string, productID uint, quantity int) (models.CartItem, error) {
	if quantity <= 0 {
		quantity = 1
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return models.CartItem{}, fmt.Errorf("product %d not found: %w", productID, err)
	}

	var existing models.CartItem
	err := db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		existing.Quantity += quantity
		if err := db.Save(&existing).Error; err != nil {
			return models.CartItem{}, fmt.Errorf("failed to update cart line: %w", err)
		}
		db.Preload("Product").First(&existing, existing.ID)
		metrics.CartMutationsTotal.WithLabelValues("add").Inc()
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartItem{}, fmt.Errorf("failed to read cart line: %w", err)
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	if err := db.Create(&item).Error; err != nil {
		return models.CartItem{}, fmt.Errorf("failed to add to cart: %w", err)
	}

	db.Preload("Product").First(&item, item.ID)
	metrics.CartMutationsTotal.WithLabelValues("add").Inc()
	return item, nil
}

// UpdateCartItem sets the quantity on a cart line. Quantity zero removes the
// line.
func (s *CartService) UpdateCartItem(ctx context.Context, userID string, itemID uint, quantity int) (models.CartItem, error) {
	if quantity < 0 {
		return models.CartItem{}, fmt.Errorf("quantity must not be negative")
	}

	db := s.db.WithContext(ctx)

	var item models.CartItem
	err := db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CartItem{}, ErrCartItemNotFound
		}
		return models.CartItem{}, fmt.Errorf("failed to load cart item %d: %w", itemID, err)
	}

	if quantity == 0 {
		if err := db.Delete(&item).Error; err != nil {
			return models.CartItem{}, fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
		}
		metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
		return models.CartItem{}, nil
	}

	item.Quantity = quantity
	if err := db.Save(&item).Error; err != nil {
		return models.CartItem{}, fmt.Errorf("failed to update cart item %d: %w", itemID, err)
	}

	db.Preload("Product").First(&item, item.ID)
	metrics.CartMutationsTotal.WithLabelValues("update").Inc()
	return item, nil
}

// RemoveFromCart deletes a cart line.
func (s *CartService) RemoveFromCart(ctx context.Context, userID string, itemID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item %d: %w", itemID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}

	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	return nil
}

// CartTotal sums price times quantity over the cart at full precision.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// CartCount is the total number of units in the cart.
func CartCount(items []models.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
