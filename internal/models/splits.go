package models

// FriendItemShare is one item's contribution to a single friend's total.
type FriendItemShare struct {
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitTotal float64 `json:"unit_total"`
	LineTotal float64 `json:"line_total"`
	Share     float64 `json:"share"`
}

// FriendTotal is the full monetary breakdown for one friend.
type FriendTotal struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	PhotoURL      string            `json:"photo_url,omitempty"`
	Subtotal      float64           `json:"subtotal"`
	Tax           float64           `json:"tax"`
	ServiceCharge float64           `json:"service_charge"`
	Total         float64           `json:"total"`
	Items         []FriendItemShare `json:"items"`
}

// ItemFriendShare is one friend's share of a single item line.
type ItemFriendShare struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// SplitItem is the per-item view of a split: the effective line total and
// how it divides across the friends assigned to the item.
type SplitItem struct {
	ItemID     int64             `json:"item_id"`
	ItemName   string            `json:"item_name"`
	Quantity   int               `json:"quantity"`
	UnitPrice  float64           `json:"unit_price"`
	Variations []Variation       `json:"variations"`
	UnitTotal  float64           `json:"unit_total"`
	LineTotal  float64           `json:"line_total"`
	Friends    []ItemFriendShare `json:"friends"`
}

// SplitSummary holds the receipt-level amounts the split allocates.
type SplitSummary struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"service_charge"`
	Total         float64 `json:"total"`
}

// ReceiptSplits is the complete split of a receipt. It matches the shape of
// the backend's GET /receipts/{id}/splits payload so locally computed
// previews and server-computed splits are interchangeable.
//
// Note carries human-readable caveats, e.g. items nobody has claimed.
type ReceiptSplits struct {
	ReceiptID int64         `json:"receipt_id"`
	Currency  string        `json:"currency"`
	Totals    []FriendTotal `json:"totals"`
	Items     []SplitItem   `json:"items"`
	Summary   SplitSummary  `json:"summary"`
	Note      string        `json:"note"`
}
