// Package domain defines the persistence models for the proxy storefront:
// basket rows, purchased proxies, spending ledger entries, and the shared
// price cache. These types are mapped with GORM and form the core data
// layer of the application.
package domain

import (
	"time"
)

// BasketItem is one pending purchase row in a user's basket. Rows with
// identical attributes and period are merged into a single purchasable
// group at checkout time (see BasketGroup); quantity is therefore kept
// per row and summed during grouping.
//
// Fields:
//   - ID: auto-increment primary key.
//   - UserID: numeric owner identifier (chat transport user id); indexed.
//   - Version: IP version sold by the provider (4, 6, or 3 for shared IPv4).
//   - Type: connection protocol ("http" or "socks").
//   - Country: ISO 3166-1 alpha-2 country code, lowercase.
//   - Count: number of proxies in this row (>= 1).
//   - Period: rental period in days (>= 3, provider minimum).
//   - CreatedAt: timestamp managed by GORM.
type BasketItem struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    int64     `json:"user_id"    gorm:"not null;index:idx_user_basket"`
	Version   int       `json:"version"    gorm:"not null"`
	Type      string    `json:"type"       gorm:"type:varchar(16);not null;check:type IN ('http','socks')"`
	Country   string    `json:"country"    gorm:"type:varchar(2);not null"`
	Count     int       `json:"count"      gorm:"not null;check:count >= 1"`
	Period    int       `json:"period"     gorm:"not null;check:period >= 3"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for BasketItem.
func (BasketItem) TableName() string { return "basket_items" }

// BasketGroup is a derived (never persisted) batch of basket rows sharing
// proxy attributes and rental period. Groups are what the purchase executor
// buys: one provider call per group, with the summed count.
//
// Invariant: grouping partitions the input rows — every basket item id
// appears in exactly one group's ItemIDs, and Count is the sum of the
// contributing rows' counts.
type BasketGroup struct {
	Version int
	Type    string
	Country string
	Count   int
	Period  int
	ItemIDs []uint
}

// Proxy is a purchased proxy credential owned by a user. Rows are created
// only after a successful provider purchase call.
type Proxy struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    int64     `json:"user_id"    gorm:"not null;index:idx_user_proxies"`
	IP        string    `json:"ip"         gorm:"type:varchar(45);not null"`
	Host      string    `json:"host"       gorm:"type:varchar(255)"`
	Port      int       `json:"port"       gorm:"not null"`
	Login     string    `json:"login"      gorm:"type:varchar(64);not null"`
	Password  string    `json:"password"   gorm:"type:varchar(64);not null"`
	Country   string    `json:"country"    gorm:"type:varchar(2);not null"`
	Type      string    `json:"type"       gorm:"type:varchar(16);not null"`
	Version   int       `json:"version"    gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Proxy.
func (Proxy) TableName() string { return "proxies" }

// Remaining reports how long the proxy is still valid at the given instant.
// Expired proxies report zero, never a negative duration.
func (p Proxy) Remaining(now time.Time) time.Duration {
	d := p.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Spending is one audit record of money spent by a user. A row is written
// alongside each successfully purchased group, never without one.
type Spending struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	UserID      int64     `json:"user_id"      gorm:"not null;index:idx_user_spending"`
	AmountMinor int64     `json:"amount_minor" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Spending.
func (Spending) TableName() string { return "spending" }

// PriceCache memoizes one provider price lookup, shared across all users.
// The key is (version, count, period); at most one live row exists per key
// and rows older than the configured TTL are treated as absent.
type PriceCache struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	Version    int       `json:"version"     gorm:"not null;uniqueIndex:ux_price_key,priority:1"`
	Count      int       `json:"count"       gorm:"not null;uniqueIndex:ux_price_key,priority:2"`
	Period     int       `json:"period"      gorm:"not null;uniqueIndex:ux_price_key,priority:3"`
	PriceMajor float64   `json:"price_major" gorm:"not null"`
	ComputedAt time.Time `json:"computed_at" gorm:"not null"`
}

// TableName returns the database table name for PriceCache.
func (PriceCache) TableName() string { return "price_cache" }

// Expired reports whether the cached price is stale at the given instant.
// A row exactly at the TTL boundary counts as expired.
func (c PriceCache) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.ComputedAt) >= ttl
}
