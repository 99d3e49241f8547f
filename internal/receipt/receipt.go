package receipt

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"menupos/internal/models"
)

// Options control the paper geometry the receipt is laid out for.
type Options struct {
	PaperWidthMM int
	MarginMM     int
}

func (o Options) withDefaults() Options {
	if o.PaperWidthMM <= 0 {
		o.PaperWidthMM = 80
	}
	if o.MarginMM < 0 {
		o.MarginMM = 0
	}
	return o
}

// Renderer turns a finished order into receipt HTML. The caller decides
// what to do with the markup: print it, preview it, or discard it.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type receiptData struct {
	OrderNumber    string
	RestaurantName string
	Date           string
	ServiceLabel   string
	TableNumber    string
	Address        string
	Items          []receiptItem
	TotalAmount    float64
	DiscountAmount float64
	FinalAmount    float64
	PaymentLabel   string
	Notes          string
	PaperWidthMM   int
	PaddingMM      int
}

type receiptItem struct {
	ProductID int64
	Quantity  int
	Price     float64
	LineTotal float64
}

// RenderHTML builds the receipt for one order. orderID may be the remote
// id or the local queue id, whichever the order ended up with.
func (r *Renderer) RenderHTML(order *models.Order, orderID int64, opts Options) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order is required")
	}
	opts = opts.withDefaults()

	data := receiptData{
		OrderNumber:    fmt.Sprintf("%d", orderID),
		RestaurantName: order.RestaurantName,
		Date:           time.Now().Format("2006-01-02 15:04"),
		ServiceLabel:   serviceLabel(order.ServiceType),
		TableNumber:    order.TableNumber,
		Address:        order.CustomerAddress,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
		PaymentLabel:   paymentLabel(order.PaymentMethod),
		Notes:          order.Notes,
		PaperWidthMM:   opts.PaperWidthMM,
		PaddingMM:      max(2, min(6, opts.MarginMM)),
	}
	if data.FinalAmount == 0 {
		data.FinalAmount = order.TotalAmount - order.DiscountAmount
	}

	for _, item := range order.Items {
		data.Items = append(data.Items, receiptItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: float64(item.Quantity) * item.Price,
		})
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return sb.String(), nil
}

func serviceLabel(serviceType string) string {
	switch serviceType {
	case models.ServiceDineIn:
		return "Dine-in"
	case models.ServiceTakeaway:
		return "Takeaway"
	default:
		return serviceType
	}
}

func paymentLabel(method string) string {
	switch method {
	case models.PaymentCash:
		return "Cash"
	case models.PaymentCard:
		return "Card"
	case models.PaymentOnline:
		return "Online"
	case models.PaymentMixed:
		return "Mixed"
	default:
		return method
	}
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { width: {{.PaperWidthMM}}mm; padding: {{.PaddingMM}}mm; font-family: monospace; font-size: 12px; margin: 0; }
  h1 { font-size: 14px; text-align: center; margin: 0 0 4px 0; }
  .meta, .totals { margin: 4px 0; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 1px 2px; }
  .line { border-top: 1px dashed #000; margin: 4px 0; }
  .total { font-weight: bold; }
</style>
</head>
<body>
  <h1>{{if .RestaurantName}}{{.RestaurantName}}{{else}}Receipt{{end}}</h1>
  <div class="meta">
    <div>Order #{{.OrderNumber}}</div>
    <div>{{.Date}}</div>
    <div>{{.ServiceLabel}}{{if .TableNumber}} / Table {{.TableNumber}}{{end}}</div>
    {{if .Address}}<div>Address: {{.Address}}</div>{{end}}
  </div>
  <div class="line"></div>
  <table>
    <tr><th>Item</th><th>Qty</th><th>Price</th><th>Sum</th></tr>
    {{range .Items}}
    <tr><td>#{{.ProductID}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td><td>{{printf "%.2f" .LineTotal}}</td></tr>
    {{end}}
  </table>
  <div class="line"></div>
  <div class="totals">
    <div>Total: {{printf "%.2f" .TotalAmount}}</div>
    {{if .DiscountAmount}}<div>Discount: -{{printf "%.2f" .DiscountAmount}}</div>{{end}}
    <div class="total">To pay: {{printf "%.2f" .FinalAmount}}</div>
    <div>Payment: {{.PaymentLabel}}</div>
  </div>
  {{if .Notes}}<div class="line"></div><div>{{.Notes}}</div>{{end}}
</body>
</html>
`
