package service

import (
	"context"

	"github.com/clickclean/civic-platform/internal/api/metrics"
	"github.com/clickclean/civic-platform/internal/core/catalog"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

type MarketplaceService struct {
	carts ports.CartStore
}

func NewMarketplaceService(carts ports.CartStore) *MarketplaceService {
	return &MarketplaceService{carts: carts}
}

func (s *MarketplaceService) Rewards(category string) []domain.Reward {
	return catalog.Rewards(category)
}

// AddToCart adds one unit of a reward. Adding a reward already in the cart
// raises its quantity.
func (s *MarketplaceService) AddToCart(ctx context.Context, userID, rewardID string) (*domain.Cart, error) {
	reward, ok := catalog.Reward(rewardID)
	if !ok {
		return nil, domain.ErrRewardNotFound
	}
	if _, err := s.carts.Increment(ctx, userID, rewardID); err != nil {
		return nil, err
	}
	metrics.CartAdditionsTotal.WithLabelValues(reward.Category).Inc()
	return s.Cart(ctx, userID)
}

func (s *MarketplaceService) RemoveFromCart(ctx context.Context, userID, rewardID string) (*domain.Cart, error) {
	if _, ok := catalog.Reward(rewardID); !ok {
		return nil, domain.ErrRewardNotFound
	}
	if err := s.carts.Remove(ctx, userID, rewardID); err != nil {
		return nil, err
	}
	return s.Cart(ctx, userID)
}

// Cart returns the user's cart in catalog order. Rewards no longer in the
// catalog are skipped.
func (s *MarketplaceService) Cart(ctx context.Context, userID string) (*domain.Cart, error) {
	quantities, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(quantities))
	for _, r := range catalog.Rewards("") {
		if q := quantities[r.ID]; q > 0 {
			items = append(items, domain.CartItem{Reward: r, Quantity: q})
		}
	}
	cart := domain.NewCart(items)
	return &cart, nil
}
