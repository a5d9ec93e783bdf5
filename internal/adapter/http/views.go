package adapthttp

import (
	"time"

	"florist/internal/app"
	"florist/internal/domain"
)

type productView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	ImageRef    string   `json:"imageRef"`
	Category    string   `json:"category"`
	Occasions   []string `json:"occasions"`
	Popular     bool     `json:"popular"`
}

type productDetailView struct {
	productView
	FullDescriptionHTML string   `json:"fullDescriptionHtml"`
	Details             []string `json:"details"`
}

func newProductView(p domain.Product) productView {
	occasions := p.Occasions
	if occasions == nil {
		occasions = []string{}
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       domain.FormatPrice(p.Price),
		ImageRef:    p.ImageRef,
		Category:    string(p.Category),
		Occasions:   occasions,
		Popular:     p.Popular,
	}
}

func newProductViews(ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProductView(p))
	}
	return out
}

type lineView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageRef  string `json:"imageRef"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type cartView struct {
	Items      []lineView           `json:"items"`
	TotalItems int                  `json:"totalItems"`
	Totals     domain.TotalsDisplay `json:"totals"`
}

func newLineViews(lines []domain.CartLine) []lineView {
	out := make([]lineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     domain.FormatPrice(l.Price),
			ImageRef:  l.ImageRef,
			Quantity:  l.Quantity,
			LineTotal: domain.FormatPrice(l.LineTotal()),
		})
	}
	return out
}

func newCartView(snap domain.CartSnapshot) cartView {
	return cartView{
		Items:      newLineViews(snap.Lines),
		TotalItems: snap.TotalItems,
		Totals:     domain.ComputeTotalsForLines(snap.Lines).Display(),
	}
}

type confirmationView struct {
	OrderNumber       string    `json:"orderNumber"`
	Email             string    `json:"email"`
	Total             string    `json:"total"`
	ConfirmedAt       time.Time `json:"confirmedAt"`
	EstimatedDelivery string    `json:"estimatedDelivery"`
}

func newConfirmationView(c *domain.Confirmation) *confirmationView {
	if c == nil {
		return nil
	}
	return &confirmationView{
		OrderNumber:       c.OrderNumber,
		Email:             c.Email,
		Total:             domain.FormatPrice(c.Total),
		ConfirmedAt:       c.ConfirmedAt,
		EstimatedDelivery: c.EstimatedDelivery,
	}
}

type checkoutView struct {
	Stage        string            `json:"stage"`
	Auth         string            `json:"auth"`
	Email        string            `json:"email,omitempty"`
	FormMode     string            `json:"formMode"`
	Busy         bool              `json:"busy"`
	Cart         cartView          `json:"cart"`
	Confirmation *confirmationView `json:"confirmation,omitempty"`
}

func newCheckoutView(v app.CheckoutView) checkoutView {
	return checkoutView{
		Stage:    string(v.Stage),
		Auth:     string(v.Auth),
		Email:    v.Email,
		FormMode: string(v.FormMode),
		Busy:     v.Busy,
		Cart: cartView{
			Items:      newLineViews(v.Lines),
			TotalItems: v.TotalItems,
			Totals:     v.Totals.Display(),
		},
		Confirmation: newConfirmationView(v.Confirmation),
	}
}

type orderView struct {
	OrderNumber       string               `json:"orderNumber"`
	Items             []lineView           `json:"items"`
	Totals            domain.TotalsDisplay `json:"totals"`
	CardLast4         string               `json:"cardLast4"`
	ConfirmedAt       time.Time            `json:"confirmedAt"`
	EstimatedDelivery string               `json:"estimatedDelivery"`
}

func newOrderViews(orders []domain.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{
			OrderNumber:       o.Number,
			Items:             newLineViews(o.Lines),
			Totals:            o.Totals.Display(),
			CardLast4:         o.CardLast4,
			ConfirmedAt:       o.ConfirmedAt,
			EstimatedDelivery: domain.DeliveryEstimate(o.ConfirmedAt),
		})
	}
	return out
}
