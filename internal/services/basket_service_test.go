package services

import (
	"context"
	"errors"
	"testing"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

func TestAdd_RequiresCompleteSelection(t *testing.T) {
	db := newTestDB(t)
	svc := NewBasketService(db, NewPriceService(db, &fakePriceSource{price: 1}))

	_, err := svc.Add(context.Background(), 1, domain.Selection{Version: 4, Type: "http"})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("Add incomplete selection = %v; want ErrInvalidSelection", err)
	}

	it, err := svc.Add(context.Background(), 1, domain.Selection{
		Version: 4, Type: "http", Country: "us", Count: 2, Period: 7,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if it.Count != 2 || it.Period != 7 {
		t.Errorf("persisted row = %+v", it)
	}
}

func TestGroupItems_PartitionsRows(t *testing.T) {
	items := []domain.BasketItem{
		{ID: 1, Version: 4, Type: "http", Country: "us", Count: 2, Period: 30},
		{ID: 2, Version: 6, Type: "socks", Country: "de", Count: 1, Period: 7},
		{ID: 3, Version: 4, Type: "http", Country: "us", Count: 3, Period: 30},
		{ID: 4, Version: 4, Type: "http", Country: "us", Count: 1, Period: 7}, // same attrs, other period
	}

	groups := GroupItems(items)
	if len(groups) != 3 {
		t.Fatalf("got %d groups; want 3", len(groups))
	}

	// First-seen order.
	if groups[0].Country != "us" || groups[0].Period != 30 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[1].Country != "de" {
		t.Errorf("group 1 = %+v", groups[1])
	}

	// Rows sharing the key merge: counts sum, ids collect.
	if groups[0].Count != 5 {
		t.Errorf("merged count = %d; want 5", groups[0].Count)
	}
	if len(groups[0].ItemIDs) != 2 || groups[0].ItemIDs[0] != 1 || groups[0].ItemIDs[1] != 3 {
		t.Errorf("merged ids = %v; want [1 3]", groups[0].ItemIDs)
	}

	// Every row id appears in exactly one group.
	seen := map[uint]int{}
	totalCount := 0
	for _, g := range groups {
		totalCount += g.Count
		for _, id := range g.ItemIDs {
			seen[id]++
		}
	}
	for _, it := range items {
		if seen[it.ID] != 1 {
			t.Errorf("row %d appears %d times across groups", it.ID, seen[it.ID])
		}
	}
	if totalCount != 7 {
		t.Errorf("sum of group counts = %d; want 7", totalCount)
	}
}

func TestGroupItems_Empty(t *testing.T) {
	if groups := GroupItems(nil); len(groups) != 0 {
		t.Fatalf("GroupItems(nil) = %v; want empty", groups)
	}
}

func TestSummarize_EmptyBasketSkipsProvider(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 1}
	svc := NewBasketService(db, NewPriceService(db, src))

	quotes, total, err := svc.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if quotes != nil || total != 0 {
		t.Errorf("empty basket summary = (%v, %d)", quotes, total)
	}
	if src.calls != 0 {
		t.Errorf("provider touched for an empty basket: %d calls", src.calls)
	}
}

func TestSummarize_QuotesEachGroupOnce(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 2.00}
	svc := NewBasketService(db, NewPriceService(db, src))
	ctx := context.Background()

	sel := domain.Selection{Version: 4, Type: "http", Country: "us", Count: 1, Period: 30}
	if _, err := svc.Add(ctx, 1, sel); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sel.Count = 2
	if _, err := svc.Add(ctx, 1, sel); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sel.Country = "de"
	if _, err := svc.Add(ctx, 1, sel); err != nil {
		t.Fatalf("Add: %v", err)
	}

	quotes, total, err := svc.Summarize(ctx, 1)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quoted groups; want 2", len(quotes))
	}
	if quotes[0].Count != 3 || quotes[1].Count != 2 {
		t.Errorf("group counts = (%d,%d); want (3,2)", quotes[0].Count, quotes[1].Count)
	}
	if total != 400 {
		t.Errorf("total = %d; want 400", total)
	}
	// Both groups price with count=3 and count=2 respectively: the "us"
	// group's merged count keys its lookup, so two distinct cache keys and
	// two provider calls.
	if src.calls != 2 {
		t.Errorf("provider called %d times; want 2", src.calls)
	}
}

func TestSummarize_PriceFailureFailsWholeSummary(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{err: errors.New("provider down")}
	svc := NewBasketService(db, NewPriceService(db, src))
	ctx := context.Background()

	if _, err := svc.Add(ctx, 1, domain.Selection{Version: 4, Type: "http", Country: "us", Count: 1, Period: 3}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	_, _, err := svc.Summarize(ctx, 1)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("Summarize err = %v; want ErrPriceUnavailable", err)
	}
}

func TestRemove_DropsOnlyGivenRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewBasketService(db, NewPriceService(db, &fakePriceSource{price: 1}))
	ctx := context.Background()

	keep, _ := svc.Add(ctx, 1, domain.Selection{Version: 4, Type: "http", Country: "us", Count: 1, Period: 3})
	drop, _ := svc.Add(ctx, 1, domain.Selection{Version: 6, Type: "socks", Country: "de", Count: 1, Period: 3})

	if err := svc.Remove(ctx, 1, []uint{drop.ID}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	items, err := svc.Items(ctx, 1)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Errorf("items after remove = %+v", items)
	}
}
