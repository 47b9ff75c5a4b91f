// Package calculator implements the receipt split algorithm.
//
// The backend is authoritative for persisted splits; this package reproduces
// its algorithm so the app can render previews and verify server results
// without a round trip. Split is a pure function and safe for concurrent use.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/snaptab/snaptab/internal/models"
)

// ItemError reports invalid data on a single receipt item. Money math never
// clamps bad input; the whole computation is rejected instead.
type ItemError struct {
	ItemID   int64
	ItemName string
	Reason   string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %s", e.ItemID, e.ItemName, e.Reason)
}

// friendAccount accumulates one friend's unrounded running totals.
type friendAccount struct {
	friend   models.Friend
	subtotal decimal.Decimal
	items    []models.FriendItemShare
}

// Split allocates a receipt's subtotal, tax and service charge across the
// friends assigned to its items.
//
// Each item's line total divides evenly among its assigned friends. Tax and
// service charge divide proportionally to each friend's share of the
// subtotal. Items with no assigned friends count toward the receipt subtotal
// but toward nobody's total; they are surfaced via the result's Note field.
//
// All amounts are computed with fixed-point decimals and rounded to two
// places in the result, so summed friend totals may drift from the receipt
// total by at most one minor unit per friend.
func Split(receipt *models.Receipt) (*models.ReceiptSplits, error) {
	if receipt == nil {
		return nil, fmt.Errorf("receipt is required")
	}
	if receipt.Tax < 0 || receipt.ServiceCharge < 0 || receipt.TotalAmount < 0 {
		return nil, fmt.Errorf("receipt %d: tax, service charge and total must be non-negative", receipt.ID)
	}
	for _, item := range receipt.Items {
		if err := validateItem(item); err != nil {
			return nil, err
		}
	}

	accounts := make(map[int64]*friendAccount, len(receipt.Friends))
	order := make([]int64, 0, len(receipt.Friends))
	for _, f := range receipt.Friends {
		if _, ok := accounts[f.ID]; ok {
			continue
		}
		accounts[f.ID] = &friendAccount{friend: f, subtotal: decimal.Zero}
		order = append(order, f.ID)
	}

	subtotal := decimal.Zero
	orphaned := 0
	splitItems := make([]models.SplitItem, 0, len(receipt.Items))

	for _, item := range receipt.Items {
		unit := effectiveUnitPrice(item)
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)

		out := models.SplitItem{
			ItemID:     item.ItemID,
			ItemName:   item.ItemName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Variations: item.Variation,
			UnitTotal:  round(unit),
			LineTotal:  round(line),
			Friends:    []models.ItemFriendShare{},
		}

		if len(item.Friends) == 0 {
			orphaned++
			splitItems = append(splitItems, out)
			continue
		}

		share := line.Div(decimal.NewFromInt(int64(len(item.Friends))))
		for _, f := range item.Friends {
			acct, ok := accounts[f.ID]
			if !ok {
				// Item references a friend the receipt doesn't list.
				// Keep their money on the books rather than dropping it.
				acct = &friendAccount{friend: f, subtotal: decimal.Zero}
				accounts[f.ID] = acct
				order = append(order, f.ID)
			}
			acct.subtotal = acct.subtotal.Add(share)
			acct.items = append(acct.items, models.FriendItemShare{
				ItemID:    item.ItemID,
				ItemName:  item.ItemName,
				Quantity:  item.Quantity,
				UnitTotal: round(unit),
				LineTotal: round(line),
				Share:     round(share),
			})
			out.Friends = append(out.Friends, models.ItemFriendShare{
				ID:    f.ID,
				Name:  f.Name,
				Share: round(share),
			})
		}
		splitItems = append(splitItems, out)
	}

	tax := decimal.NewFromFloat(receipt.Tax)
	serviceCharge := decimal.NewFromFloat(receipt.ServiceCharge)

	totals := make([]models.FriendTotal, 0, len(order))
	for _, id := range order {
		acct := accounts[id]

		friendTax := decimal.Zero
		friendSvc := decimal.Zero
		if !subtotal.IsZero() {
			friendTax = tax.Mul(acct.subtotal).Div(subtotal)
			friendSvc = serviceCharge.Mul(acct.subtotal).Div(subtotal)
		}

		sub := round2(acct.subtotal)
		taxShare := round2(friendTax)
		svcShare := round2(friendSvc)
		items := acct.items
		if items == nil {
			items = []models.FriendItemShare{}
		}
		totals = append(totals, models.FriendTotal{
			ID:            acct.friend.ID,
			Name:          acct.friend.Name,
			PhotoURL:      acct.friend.PhotoURL,
			Subtotal:      sub.InexactFloat64(),
			Tax:           taxShare.InexactFloat64(),
			ServiceCharge: svcShare.InexactFloat64(),
			Total:         sub.Add(taxShare).Add(svcShare).InexactFloat64(),
			Items:         items,
		})
	}

	note := ""
	if orphaned > 0 {
		note = fmt.Sprintf("%d item(s) have no friends assigned; their cost is included in the subtotal but not allocated to anyone", orphaned)
	}

	return &models.ReceiptSplits{
		ReceiptID: receipt.ID,
		Currency:  receipt.Currency,
		Totals:    totals,
		Items:     splitItems,
		Summary: models.SplitSummary{
			Subtotal:      round(subtotal),
			Tax:           round(tax),
			ServiceCharge: round(serviceCharge),
			Total:         round(decimal.NewFromFloat(receipt.TotalAmount)),
		},
		Note: note,
	}, nil
}

func validateItem(item models.Item) error {
	if item.Quantity < 1 {
		return &ItemError{ItemID: item.ItemID, ItemName: item.ItemName, Reason: fmt.Sprintf("quantity must be at least 1, got %d", item.Quantity)}
	}
	if item.UnitPrice < 0 {
		return &ItemError{ItemID: item.ItemID, ItemName: item.ItemName, Reason: fmt.Sprintf("unit price must be non-negative, got %v", item.UnitPrice)}
	}
	for _, v := range item.Variation {
		if v.Price < 0 {
			return &ItemError{ItemID: item.ItemID, ItemName: item.ItemName, Reason: fmt.Sprintf("variation %q price must be non-negative, got %v", v.VariationName, v.Price)}
		}
	}
	return nil
}

// effectiveUnitPrice resolves an item's per-unit price. If any variation
// carries a positive price, the unit price is the sum of all variation
// prices. If variations exist but every price is zero, the backend omitted
// real variation prices and unit_price is authoritative. This fallback
// matches observed backend payloads and must not be "fixed".
func effectiveUnitPrice(item models.Item) decimal.Decimal {
	if len(item.Variation) > 0 {
		sum := decimal.Zero
		priced := false
		for _, v := range item.Variation {
			p := decimal.NewFromFloat(v.Price)
			if p.IsPositive() {
				priced = true
			}
			sum = sum.Add(p)
		}
		if priced {
			return sum
		}
	}
	return decimal.NewFromFloat(item.UnitPrice)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
