package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/backoffice/internal/models"
)

type OrderItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderEvent struct {
	Type    string          `json:"type"`
	OrderID uint            `json:"order_id"`
	UserID  uuid.UUID       `json:"user_id"`
	Total   decimal.Decimal `json:"total"`
	Items   []OrderItem     `json:"items,omitempty"`
}

type ProductEvent struct {
	Type      string          `json:"type"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type UserEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
}

func NewOrderEvent(typ string, o *models.Order) OrderEvent {
	ev := OrderEvent{Type: typ, OrderID: o.ID, UserID: o.UserID, Total: o.Total}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return ev
}

func NewProductEvent(typ string, p *models.Product) ProductEvent {
	return ProductEvent{Type: typ, ProductID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
}

func NewUserEvent(typ string, u *models.User) UserEvent {
	return UserEvent{Type: typ, UserID: u.ID, Email: u.Email}
}
