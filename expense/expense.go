// Package expense defines the transaction record produced by the data
// generator and consumed by the analyzer, plus the fixed categorical
// vocabularies every record draws from.
package expense

import (
	"math"
	"time"
)

// Record is a single purchase line: what was bought, from whom, for how much.
type Record struct {
	Date          time.Time
	Product       string
	Quantity      int
	UnitPrice     float64
	Supplier      string
	PaymentMethod string
	Notes         string
	TotalPrice    float64
}

// Products are the purchasable categories. Order matters for deterministic
// sampling, do not sort.
var Products = []string{
	"Fresh Vegetables",
	"Meats (Beef, Chicken)",
	"Dairy Products",
	"Spices & Herbs",
	"Grains (Rice, Pasta)",
	"Beverages (Soft Drinks, Juices)",
	"Bakery Items",
	"Cleaning Supplies",
	"Disposable Goods",
	"Seafood",
	"Fruits",
}

var Suppliers = []string{
	"Supplier A",
	"Supplier B",
	"Supplier C",
	"Local Farm",
	"Wholesale Foods",
}

var PaymentMethods = []string{
	"Credit Card",
	"Bank Transfer",
	"Cash",
}

// Notes and NoteWeights describe a skewed categorical: most rows carry no
// note. Weights must sum to 1 and stay index-aligned with Notes.
var (
	Notes       = []string{"None", "Urgent", "Bulk Order", "Special Request"}
	NoteWeights = []float64{0.7, 0.1, 0.1, 0.1}
)

// Quantity and unit price sampling bounds. Quantity is [QuantityMin,
// QuantityMax) and unit price is [UnitPriceMin, UnitPriceMax).
const (
	QuantityMin  = 1
	QuantityMax  = 50
	UnitPriceMin = 0.5
	UnitPriceMax = 100.0
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ComputeTotal recomputes the derived total for the record. The total is
// always derived from quantity and unit price, never sampled or trusted
// from input.
func (r *Record) ComputeTotal() {
	r.TotalPrice = Round2(float64(r.Quantity) * r.UnitPrice)
}
