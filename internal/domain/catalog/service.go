package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	items ItemRepository
}

func NewService(items ItemRepository) *Service {
	return &Service{items: items}
}

func (s *Service) CreateItem(ctx context.Context, item *Item) error {
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if item.Category == "" {
		return fmt.Errorf("category is required")
	}
	item.Active = true
	return s.items.Create(ctx, item)
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Service) UpdateItem(ctx context.Context, item *Item) error {
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if item.Category == "" {
		return fmt.Errorf("category is required")
	}
	return s.items.Update(ctx, item)
}

// DeactivateItem removes an item from the orderable set without deleting
// it, so finalized and historical orders keep resolving its name.
func (s *Service) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	item.Active = false
	return s.items.Update(ctx, item)
}

func (s *Service) ListItems(ctx context.Context, activeOnly bool, limit, offset int) ([]*Item, int, error) {
	return s.items.List(ctx, activeOnly, limit, offset)
}

func (s *Service) ListItemsByCategory(ctx context.Context, category string, limit, offset int) ([]*Item, int, error) {
	if category == "" {
		return nil, 0, fmt.Errorf("category is required")
	}
	return s.items.ListByCategory(ctx, category, limit, offset)
}

func (s *Service) ListADAFriendlyItems(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	return s.items.ListADAFriendly(ctx, limit, offset)
}
