package catalog

// Variant is the read-side view of a sellable product variant. Price and cost
// are in currency minor units. Stock is not here: quantities live in the
// inventory ledger.
type Variant struct {
	ID          string
	ProductID   string
	Name        string
	Price       int64
	SupplierID  string
	SupplierSKU string
	UnitCost    int64

	ProductName   string
	ProductActive bool
}

type GetVariantOptions struct {
	VariantID  string
	OnlyActive bool
}
