package models

import "time"

// ReceiptItem is one extracted line item from a receipt.
type ReceiptItem struct {
	StoreName string  `bson:"store_name,omitempty" json:"store_name,omitempty"`
	ItemName  string  `bson:"item_name" json:"item_name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Subtotal  float64 `bson:"subtotal" json:"subtotal"`
	TaxCode   string  `bson:"tax_code,omitempty" json:"tax_code,omitempty"`
	TaxAmount float64 `bson:"tax_amount" json:"tax_amount"`
	Total     float64 `bson:"total" json:"total"`
}

// Receipt is a parsed receipt persisted after model extraction.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `bson:"_id,omitempty" json:"receipt_id"`

	// StoreName is taken from the first extracted item.
	StoreName string `bson:"store_name" json:"store_name"`

	Items []ReceiptItem `bson:"items" json:"items"`

	// Total is the receipt grand total.
	Total float64 `bson:"total" json:"total"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
