package types

// Property is one name/value pair from a line item's property bag. Bundle and
// subscription apps stash their markers here; names are unique per line in
// practice but not guaranteed.
type Property struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// DiscountAllocation is a single discount amount applied against a line item.
type DiscountAllocation struct {
	Amount string `json:"amount"`
}

// SellingPlanAllocation marks a line purchased under a subscription plan.
type SellingPlanAllocation struct {
	SellingPlanID int64  `json:"selling_plan_id"`
	Name          string `json:"name"`
}

// LineItem mirrors the Shopify order webhook line item, limited to the fields
// the transform cares about.
type LineItem struct {
	ID                    int64                  `json:"id"`
	Title                 string                 `json:"title"`
	SKU                   string                 `json:"sku"`
	Quantity              int                    `json:"quantity"`
	Price                 string                 `json:"price"`
	ProductID             int64                  `json:"product_id"`
	VariantID             int64                  `json:"variant_id"`
	Properties            []Property             `json:"properties"`
	DiscountAllocations   []DiscountAllocation   `json:"discount_allocations"`
	TotalDiscount         string                 `json:"total_discount"`
	SellingPlanAllocation *SellingPlanAllocation `json:"selling_plan_allocation,omitempty"`
}

// Address is the subset of the Shopify address node the feed renders.
type Address struct {
	Name        string `json:"name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// Customer carries the email used as the feed customer code.
type Customer struct {
	Email string `json:"email"`
}

// Order is the parsed Shopify order webhook payload.
type Order struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Currency        string     `json:"currency"`
	Email           string     `json:"email"`
	Customer        *Customer  `json:"customer,omitempty"`
	Note            string     `json:"note"`
	Tags            string     `json:"tags"`
	ShippingAddress Address    `json:"shipping_address"`
	BillingAddress  Address    `json:"billing_address"`
	LineItems       []LineItem `json:"line_items"`
	CreatedAt       string     `json:"created_at"`
}

// CustomerEmail prefers the customer record over the order-level email.
func (o Order) CustomerEmail() string {
	if o.Customer != nil && o.Customer.Email != "" {
		return o.Customer.Email
	}
	return o.Email
}
