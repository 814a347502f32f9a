package legacyimport

import (
	"context"
	"fmt"
)

// CategoryResolver turns a legacy category label into a persisted category
// id, creating the category on first reference.
type CategoryResolver struct {
	store Store
}

func NewCategoryResolver(store Store) *CategoryResolver {
	return &CategoryResolver{store: store}
}

// Resolve looks the label up in the static mapping, then finds or creates
// the user's category for the mapped (name, type) pair. Existing categories
// are returned as-is; their icon and is_default flag are never overwritten.
func (r *CategoryResolver) Resolve(ctx context.Context, userID int64, label string) (int64, error) {
	mapping, err := LookupCategory(label)
	if err != nil {
		return 0, err
	}

	existing, err := r.store.FindCategory(ctx, userID, mapping.Name, mapping.Type)
	if err != nil {
		return 0, fmt.Errorf("failed to look up category %q: %w", mapping.Name, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.store.CreateCategory(ctx, Category{
		UserID:    userID,
		Name:      mapping.Name,
		Type:      mapping.Type,
		IsDefault: false,
		Icon:      DefaultCategoryIcon,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create category %q: %w", mapping.Name, err)
	}
	return id, nil
}
