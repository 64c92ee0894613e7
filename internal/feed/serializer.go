package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// DateLayout is the fixed MM/DD/YYYY HH:mm format ShipStation expects, always
// rendered in UTC.
const DateLayout = "01/02/2006 15:04"

const fallbackCustomerCode = "customer@example.com"

type cdata struct {
	Value string `xml:",cdata"`
}

type xmlOrders struct {
	XMLName xml.Name   `xml:"Orders"`
	Pages   int        `xml:"pages,attr"`
	Orders  []xmlOrder `xml:"Order"`
}

type xmlOrder struct {
	OrderID        cdata       `xml:"OrderID"`
	OrderNumber    cdata       `xml:"OrderNumber"`
	OrderDate      cdata       `xml:"OrderDate"`
	OrderStatus    cdata       `xml:"OrderStatus"`
	LastModified   cdata       `xml:"LastModified"`
	ShippingMethod cdata       `xml:"ShippingMethod"`
	PaymentMethod  cdata       `xml:"PaymentMethod"`
	CurrencyCode   string      `xml:"CurrencyCode,omitempty"`
	OrderTotal     string      `xml:"OrderTotal"`
	TaxAmount      string      `xml:"TaxAmount"`
	ShippingAmount string      `xml:"ShippingAmount"`
	CustomerNotes  cdata       `xml:"CustomerNotes"`
	Customer       xmlCustomer `xml:"Customer"`
	Items          xmlItems    `xml:"Items"`
}

type xmlCustomer struct {
	CustomerCode cdata      `xml:"CustomerCode"`
	BillTo       xmlBillTo  `xml:"BillTo"`
	ShipTo       xmlAddress `xml:"ShipTo"`
}

type xmlBillTo struct {
	Name  cdata `xml:"Name"`
	Email cdata `xml:"Email"`
}

type xmlAddress struct {
	Name       cdata `xml:"Name"`
	Company    cdata `xml:"Company"`
	Address1   cdata `xml:"Address1"`
	Address2   cdata `xml:"Address2"`
	City       cdata `xml:"City"`
	State      cdata `xml:"State"`
	PostalCode cdata `xml:"PostalCode"`
	Country    cdata `xml:"Country"`
	Phone      cdata `xml:"Phone"`
}

type xmlItems struct {
	Items []xmlItem `xml:"Item"`
}

type xmlItem struct {
	LineItemID cdata  `xml:"LineItemID"`
	SKU        cdata  `xml:"SKU"`
	Name       cdata  `xml:"Name"`
	ImageURL   cdata  `xml:"ImageUrl"`
	Quantity   int    `xml:"Quantity"`
	UnitPrice  string `xml:"UnitPrice"`
	Adjustment string `xml:"Adjustment"`
}

// Serializer renders stored orders as the ShipStation custom-store XML feed.
type Serializer struct {
	skuPrefix string
}

// NewSerializer builds a serializer using the configured SKU prefix for lines
// that carry none of their own.
func NewSerializer(cfg config.FeedConfig) *Serializer {
	prefix := strings.TrimSpace(cfg.SKUPrefix)
	if prefix == "" {
		prefix = "SF"
	}
	return &Serializer{skuPrefix: prefix}
}

// Serialize renders the given orders, newest first as provided. An order with
// no lines (e.g. one only ever seen through a cancellation) renders an empty
// Items node rather than being skipped.
func (s *Serializer) Serialize(stored []orders.StoredOrder, pages int) ([]byte, error) {
	if pages < 1 {
		pages = 1
	}
	doc := xmlOrders{Pages: pages, Orders: make([]xmlOrder, 0, len(stored))}
	for _, so := range stored {
		doc.Orders = append(doc.Orders, s.renderOrder(so))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling feed: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func (s *Serializer) renderOrder(so orders.StoredOrder) xmlOrder {
	order := so.Order
	ship := order.ShippingAddress
	bill := order.BillingAddress

	number := so.Number
	if number == "" {
		number = fmt.Sprintf("%d", so.OrderID)
	}

	out := xmlOrder{
		OrderID:        cdata{fmt.Sprintf("%d", so.OrderID)},
		OrderNumber:    cdata{number},
		OrderDate:      cdata{formatDate(orderDate(so))},
		OrderStatus:    cdata{string(so.Status)},
		LastModified:   cdata{formatDate(so.UpdatedAt)},
		ShippingMethod: cdata{"Ground"},
		PaymentMethod:  cdata{"Other"},
		CurrencyCode:   order.Currency,
		OrderTotal:     orderTotal(so.Lines),
		TaxAmount:      "0.00",
		ShippingAmount: "0.00",
		CustomerNotes:  cdata{order.Note},
		Customer: xmlCustomer{
			CustomerCode: cdata{customerCode(order)},
			BillTo: xmlBillTo{
				Name:  cdata{addressName(bill)},
				Email: cdata{order.CustomerEmail()},
			},
			ShipTo: xmlAddress{
				Name:       cdata{addressName(ship)},
				Company:    cdata{ship.Company},
				Address1:   cdata{ship.Address1},
				Address2:   cdata{ship.Address2},
				City:       cdata{ship.City},
				State:      cdata{ship.Province},
				PostalCode: cdata{ship.Zip},
				Country:    cdata{countryOf(ship)},
				Phone:      cdata{ship.Phone},
			},
		},
	}

	out.Items.Items = make([]xmlItem, 0, len(so.Lines))
	for _, line := range so.Lines {
		out.Items.Items = append(out.Items.Items, s.renderItem(so.OrderID, line))
	}
	return out
}

func (s *Serializer) renderItem(orderID int64, line types.OutputLine) xmlItem {
	qty := line.Quantity
	if qty < 1 {
		qty = 1
	}

	sku := line.SKU
	if sku == "" {
		sku = fmt.Sprintf("%s-%d-%s", s.skuPrefix, orderID, line.ID)
	}

	adjustment := "false"
	if line.IsParent {
		adjustment = "true"
	}

	return xmlItem{
		LineItemID: cdata{line.ID},
		SKU:        cdata{sku},
		Name:       cdata{line.Title},
		ImageURL:   cdata{line.ImageURL},
		Quantity:   qty,
		UnitPrice:  line.UnitPrice.StringFixed(2),
		Adjustment: adjustment,
	}
}

// TestResponse is the payload for ShipStation's action=test connectivity
// check.
func (s *Serializer) TestResponse(storeName string) []byte {
	type store struct {
		XMLName xml.Name `xml:"Store"`
		Name    cdata    `xml:"Name"`
		Status  cdata    `xml:"Status"`
	}
	body, err := xml.MarshalIndent(store{Name: cdata{storeName}, Status: cdata{"ok"}}, "", "  ")
	if err != nil {
		return []byte(xml.Header + "<Store/>")
	}
	return append([]byte(xml.Header), body...)
}

func orderTotal(lines []types.OutputLine) string {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total.StringFixed(2)
}

// orderDate prefers the order's own creation timestamp and falls back to when
// the store first saw it.
func orderDate(so orders.StoredOrder) time.Time {
	if so.Order.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, so.Order.CreatedAt); err == nil {
			return t
		}
	}
	return so.ReceivedAt
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func customerCode(order types.Order) string {
	if email := order.CustomerEmail(); email != "" {
		return email
	}
	return fallbackCustomerCode
}

func addressName(addr types.Address) string {
	if addr.Name != "" {
		return addr.Name
	}
	return strings.TrimSpace(addr.FirstName + " " + addr.LastName)
}

func countryOf(addr types.Address) string {
	if addr.CountryCode != "" {
		return strings.ToUpper(addr.CountryCode)
	}
	return addr.Country
}
