package models

// Friend is a person a user splits receipts with. Friends belong to a user
// account; items and receipts reference them by ID.
type Friend struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// Variation is a priced sub-option of an item, e.g. a size or an add-on.
// The backend sometimes returns variations with placeholder zero prices;
// in that case the item's unit price is authoritative.
type Variation struct {
	VariationName string  `json:"variation_name"`
	Price         float64 `json:"price"`
}

// Item is a single line on a receipt. Friends holds the subset of the
// receipt's friends who share this item; an empty slice means nobody has
// claimed it yet.
type Item struct {
	ItemID    int64       `json:"item_id"`
	ItemName  string      `json:"item_name"`
	Quantity  int         `json:"quantity"`
	UnitPrice float64     `json:"unit_price"`
	Variation []Variation `json:"variation"`
	Friends   []Friend    `json:"friends"`
}

// Receipt is a parsed receipt as returned by the backend. TotalAmount is
// backend-computed (subtotal + tax + service charge); clients allocate it
// but never recompute it.
type Receipt struct {
	ID             int64    `json:"id"`
	UserID         int64    `json:"user_id"`
	Currency       string   `json:"currency"`
	ReceiptURL     string   `json:"receipt_url"`
	RestaurantName string   `json:"restaurant_name"`
	ServiceCharge  float64  `json:"service_charge"`
	Tax            float64  `json:"tax"`
	TotalAmount    float64  `json:"total_amount"`
	Friends        []Friend `json:"friends"`
	Items          []Item   `json:"items"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// DashboardData bundles the friends and receipts shown on the home screen.
type DashboardData struct {
	Friends  []Friend  `json:"friends"`
	Receipts []Receipt `json:"receipts"`
}
