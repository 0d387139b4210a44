// Package domain defines the persistence models for products, offers,
// watch items, and pending notifications. These types are mapped with GORM
// and form the core data layer of the offers backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Listing type values reported on normalized offers.
const (
	ListingTypeExact     = "EXACT"
	ListingTypeEstimated = "ESTIMATED"
)

// Product is a recognized item that offers are gathered for. Products are
// created either by the recognition pipeline (out of scope here) or lazily
// by the offer-candidate search path.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: display title used to build provider queries.
//   - Brand: optional brand hint, prepended to provider queries when present.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Product struct {
	ID        string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null;index"`
	Brand     string    `json:"brand" gorm:"type:varchar(128);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Offer is one vendor's price/availability/listing for a product. At most one
// row exists per (product_id, vendor_id); refreshes overwrite price, shipping,
// ETA, URL, and title in place but never the vendor identity.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ProductID: owning product (indexed, unique together with VendorID).
//   - VendorID: stable identifier of the supplying marketplace or fallback
//     source (e.g. "ebay", "walmart").
//   - VendorName: human-readable vendor display name.
//   - Title: listing title as reported by the vendor.
//   - PriceCents / ShippingCents: integer money, never floats.
//   - EtaDays: estimated delivery in days, kept within [1,14].
//   - InStock: availability flag; out-of-stock offers never rank.
//   - ProductURL: absolute URL of the vendor listing (or a search URL for
//     synthesized fallback offers).
type Offer struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	ProductID     string         `json:"product_id"     gorm:"type:char(36);not null;uniqueIndex:ux_offers_product_vendor,priority:1"`
	VendorID      string         `json:"vendor_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_offers_product_vendor,priority:2"`
	VendorName    string         `json:"vendor_name"    gorm:"type:varchar(128);not null"`
	Title         string         `json:"title"          gorm:"type:varchar(512)"`
	PriceCents    int64          `json:"price_cents"    gorm:"not null;check:price_cents > 0"`
	ShippingCents int64          `json:"shipping_cents" gorm:"not null;default:0"`
	EtaDays       int            `json:"eta_days"       gorm:"not null;default:5"`
	InStock       bool           `json:"in_stock"       gorm:"not null;default:true"`
	ProductURL    string         `json:"product_url"    gorm:"type:varchar(2048)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	// Product is the owning product row.
	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Offer.
func (Offer) TableName() string { return "offers" }

// TotalCents returns price plus shipping, the primary ranking key.
func (o Offer) TotalCents() int64 { return o.PriceCents + o.ShippingCents }

// NormalizedOffer is the wire shape returned to callers: all Offer fields plus
// the derived listing classification. It is never persisted.
type NormalizedOffer struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	VendorID      string `json:"vendor_id"`
	VendorName    string `json:"vendor_name"`
	Title         string `json:"title"`
	PriceCents    int64  `json:"price_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	EtaDays       int    `json:"eta_days"`
	InStock       bool   `json:"in_stock"`
	ProductURL    string `json:"product_url"`

	// ListingVerified is true when ProductURL structurally matches a known
	// product-detail pattern for the vendor (not a search/results page).
	ListingVerified bool `json:"listing_verified"`
	// ListingType is "EXACT" when verified, otherwise "ESTIMATED".
	ListingType string `json:"listing_type"`
}

// TotalCents returns price plus shipping, the primary ranking key.
func (o NormalizedOffer) TotalCents() int64 { return o.PriceCents + o.ShippingCents }

// WatchItem is a user's subscription to price/ETA movement on one product.
// Unique per (user_id, product_id). The alert engine is the only writer of the
// last-seen baseline and the notified timestamp, and it advances them only
// when an alert actually fires.
//
// Fields:
//   - PctDropThreshold: percent drop against the baseline that triggers an
//     alert (default 15).
//   - TargetPriceCents: optional absolute trigger; fires when the best total
//     meets or beats it.
//   - ShippingImprovementOn: when set, an ETA improvement versus the baseline
//     also fires.
//   - PreferredOfferID / PreferredVendorID / PreferredProductURL: optional pin
//     to a specific offer; a pinned match takes precedence over the computed
//     best offer.
//   - LastSeenBestPriceCents / LastSeenBestEtaDays: baseline the next tick is
//     evaluated against; zero means "no baseline yet".
type WatchItem struct {
	ID                    string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID                string         `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_watch_user_product,priority:1"`
	ProductID             string         `json:"product_id" gorm:"type:char(36);not null;uniqueIndex:ux_watch_user_product,priority:2"`
	PctDropThreshold      float64        `json:"pct_drop_threshold"      gorm:"not null;default:15"`
	TargetPriceCents      *int64         `json:"target_price_cents,omitempty"`
	ShippingImprovementOn bool           `json:"shipping_improvement_on" gorm:"not null;default:false"`
	PreferredOfferID      *string        `json:"preferred_offer_id,omitempty"   gorm:"type:char(36)"`
	PreferredVendorID     *string        `json:"preferred_vendor_id,omitempty"  gorm:"type:varchar(64)"`
	PreferredProductURL   *string        `json:"preferred_product_url,omitempty" gorm:"type:varchar(2048)"`
	LastSeenBestPriceCents int64         `json:"last_seen_best_price_cents" gorm:"not null;default:0"`
	LastSeenBestEtaDays   int            `json:"last_seen_best_eta_days"    gorm:"not null;default:0"`
	LastNotifiedAt        *time.Time     `json:"last_notified_at,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `json:"-" gorm:"index"`

	// Product is the watched product row.
	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WatchItem.
func (WatchItem) TableName() string { return "watch_items" }

// PendingNotification is an append-only queued alert. Rows are never deleted;
// the terminal state is DeliveredAt being set once a client acknowledges it.
//
// Payload is opaque structured data (JSON) describing the triggering offer.
type PendingNotification struct {
	ID          string     `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	ProductID   string     `json:"product_id" gorm:"type:char(36);not null;index"`
	Type        string     `json:"type"       gorm:"type:varchar(32);not null"`
	Message     string     `json:"message"    gorm:"type:text;not null"`
	Payload     string     `json:"payload"    gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// TableName returns the database table name for PendingNotification.
func (PendingNotification) TableName() string { return "pending_notifications" }

// Notification type values.
const (
	NotificationPriceDrop = "PRICE_DROP"
)
