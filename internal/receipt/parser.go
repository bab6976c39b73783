// Package receipt turns a receipt image into an itemized parse via an
// external vision-language model.
//
// The model is an opaque collaborator behind the Extractor interface: it
// receives the image plus a fixed prompt and returns free-form text expected
// to contain one JSON object. This package owns the prompt, the content-type
// allow-list, the Ontario tax-code table baked into the prompt, the
// code-fence stripping, and the shape validation of the model's answer.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paymi/backend/internal/models"
)

// AllowedContentTypes is the fixed upload allow-list. Checked before any
// model call.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// TaxRates maps the nine receipt tax codes to the fractional rate applied
// to an item's subtotal. Codes not in the table (including the "no code" /
// "tax exempt" / "zero-rated" fallbacks) carry a zero rate.
var TaxRates = map[string]float64{
	"A": 0.13, // GST/HST
	"B": 0.08, // PST/QST
	"C": 0.13, // both, HST rate
	"D": 0.00, // no tax
	"E": 0.13, // both, associate discount
	"H": 0.00, // tax exempt
	"J": 0.13, // GST/HST, associate discount
	"K": 0.08, // PST/QST, associate discount
	"Y": 0.05, // GST only
	"Z": 0.05, // GST only, associate discount
}

// RateForCode returns the fractional tax rate for a code, zero for unknown
// or absent codes.
func RateForCode(code string) float64 {
	return TaxRates[strings.ToUpper(strings.TrimSpace(code))]
}

// ErrInvalidResponse is returned when the model's output, after fence
// stripping, is not a JSON object with both an items list and a total.
var ErrInvalidResponse = errors.New("invalid response format from model")

// Prompt is the fixed extraction prompt sent with every receipt image.
const Prompt = `Extract all items, quantities, prices, and tax information from this receipt image. ` +
	`For each item, identify its tax code (if visible) and calculate the tax amount using the tax table below.

TAX CODE LEGEND (Ontario Tax Rates):
* Code A: GST/HST applies - Apply 13% HST (subtotal x 0.13)
* Code B: PST/QST applies - Apply 8% PST (subtotal x 0.08)
* Code C: Both GST/HST and PST/QST apply - Apply 13% HST (subtotal x 0.13)
* Code D: No Tax - tax_amount = 0.00
* Code E: Both GST/HST and PST/QST apply (Eligible for Associate Discount) - Apply 13% HST (subtotal x 0.13)
* Code H: Tax Exempt - tax_amount = 0.00
* Code J: GST/HST applies (Eligible for Associate Discount) - Apply 13% HST (subtotal x 0.13)
* Code K: PST/QST applies (Eligible for Associate Discount) - Apply 8% PST (subtotal x 0.08)
* Code Y: GST (5%) applies - Apply 5% GST (subtotal x 0.05)
* Code Z: GST (5%) applies (Eligible for Associate Discount) - Apply 5% GST (subtotal x 0.05)

INSTRUCTIONS:
1. For each item on the receipt, identify the tax code (A, B, C, D, E, H, J, K, Y, Z) if visible.
2. Extract the item's subtotal (price before tax).
3. Calculate tax_amount using the formula from the tax code legend above.
4. Calculate total = subtotal + tax_amount for each item.
5. If no tax code is visible, check if the receipt shows tax breakdown and calculate accordingly.
6. If tax is already included in the price shown, extract the tax amount from the receipt's tax breakdown.

Return ONLY valid JSON (no markdown, no code blocks, just pure JSON):
{"items": [{"store_name": "merchant name", "item_name": "item name", "quantity": 1, "subtotal": 0.00, "tax_code": "A", "tax_amount": 0.00, "total": 0.00}], "total": 0.00}

IMPORTANT:
- Include tax_code field for each item (use the code letter if visible, or null if not found)
- Calculate tax_amount based on the tax code using Ontario rates
- Ensure total for each item = subtotal + tax_amount
- The receipt total should match the sum of all item totals`

// Extractor invokes the external vision-language model with an image and
// the fixed prompt, returning its raw text answer.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Parsed is the validated result of one extraction.
type Parsed struct {
	Items []models.ReceiptItem `json:"items"`
	Total float64              `json:"total"`
}

// StoreName is the merchant name, taken from the first item.
func (p *Parsed) StoreName() string {
	if len(p.Items) > 0 {
		return p.Items[0].StoreName
	}
	return ""
}

// StripCodeFence removes Markdown code-fence wrapping (```json ... ``` or
// ``` ... ```) that models sometimes emit despite the prompt.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// Parse validates the model's raw text answer: strips any code fence,
// unmarshals one JSON object, and requires both an items list and a total.
func Parse(raw string) (*Parsed, error) {
	cleaned := StripCodeFence(raw)

	var decoded struct {
		Items *[]models.ReceiptItem `json:"items"`
		Total *float64              `json:"total"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from model response: %w", err)
	}
	if decoded.Items == nil || decoded.Total == nil {
		return nil, ErrInvalidResponse
	}

	return &Parsed{Items: *decoded.Items, Total: *decoded.Total}, nil
}
