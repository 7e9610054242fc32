package repo

import (
	"context"
	"testing"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

func TestAddBasketItem_PersistsFields(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})
	ctx := context.Background()

	it, err := AddBasketItem(ctx, db, 42, 4, "http", "us", 2, 7)
	if err != nil {
		t.Fatalf("AddBasketItem: %v", err)
	}
	if it.ID == 0 {
		t.Fatalf("row id not assigned")
	}
	if it.UserID != 42 || it.Version != 4 || it.Type != "http" || it.Country != "us" || it.Count != 2 || it.Period != 7 {
		t.Fatalf("unexpected fields: %+v", it)
	}
	if it.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
}

func TestListBasketItems_InsertionOrderAndOwnership(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})
	ctx := context.Background()

	first, _ := AddBasketItem(ctx, db, 1, 4, "http", "us", 1, 3)
	second, _ := AddBasketItem(ctx, db, 1, 6, "socks", "de", 2, 7)
	if _, err := AddBasketItem(ctx, db, 2, 4, "http", "us", 9, 3); err != nil {
		t.Fatalf("AddBasketItem other user: %v", err)
	}

	items, err := ListBasketItems(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListBasketItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2 (ownership scoping)", len(items))
	}
	if items[0].ID != first.ID || items[1].ID != second.ID {
		t.Fatalf("items out of insertion order: %v, %v", items[0].ID, items[1].ID)
	}
}

func TestListBasketItems_EmptyBasket(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})

	items, err := ListBasketItems(context.Background(), db, 99)
	if err != nil {
		t.Fatalf("ListBasketItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items; want 0", len(items))
	}
}

func TestDeleteBasketItems_ScopedToOwner(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})
	ctx := context.Background()

	mine, _ := AddBasketItem(ctx, db, 1, 4, "http", "us", 1, 3)
	theirs, _ := AddBasketItem(ctx, db, 2, 4, "http", "us", 1, 3)

	// Attempt to delete both rows as user 1: only user 1's row may go.
	if err := DeleteBasketItems(ctx, db, 1, []uint{mine.ID, theirs.ID}); err != nil {
		t.Fatalf("DeleteBasketItems: %v", err)
	}

	if items, _ := ListBasketItems(ctx, db, 1); len(items) != 0 {
		t.Errorf("user 1 still has %d rows", len(items))
	}
	if items, _ := ListBasketItems(ctx, db, 2); len(items) != 1 {
		t.Errorf("user 2 lost their row")
	}
}

func TestDeleteBasketItems_NoIDsIsNoop(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})
	if err := DeleteBasketItems(context.Background(), db, 1, nil); err != nil {
		t.Fatalf("DeleteBasketItems(nil): %v", err)
	}
}

func TestDeleteUserBasket_RemovesAllRows(t *testing.T) {
	db := newTestDB(t, &domain.BasketItem{})
	ctx := context.Background()

	_, _ = AddBasketItem(ctx, db, 1, 4, "http", "us", 1, 3)
	_, _ = AddBasketItem(ctx, db, 1, 6, "socks", "de", 2, 7)
	_, _ = AddBasketItem(ctx, db, 2, 4, "http", "us", 1, 3)

	if err := DeleteUserBasket(ctx, db, 1); err != nil {
		t.Fatalf("DeleteUserBasket: %v", err)
	}
	if items, _ := ListBasketItems(ctx, db, 1); len(items) != 0 {
		t.Errorf("user 1 basket not emptied")
	}
	if items, _ := ListBasketItems(ctx, db, 2); len(items) != 1 {
		t.Errorf("user 2 basket affected")
	}
}
