package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Name         string    `gorm:"not null"               json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"   json:"email"`
	PasswordHash string    `gorm:"not null"               json:"-"`
	CreatedAt    time.Time `                              json:"created_at"`
	UpdatedAt    time.Time `                              json:"updated_at"`
}

// AccessToken stores the sha256 of an issued bearer token; deleting the row revokes it.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	Token     string    `gorm:"uniqueIndex;not null"   json:"-"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	CreatedAt time.Time `                              json:"created_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                                json:"id"`
	Name        string          `gorm:"not null"                                  json:"name"`
	Description string          `                                                 json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"       json:"stock"`
	CreatedAt   time.Time       `                                                 json:"created_at"`
	UpdatedAt   time.Time       `                                                 json:"updated_at"`
}

type Order struct {
	ID        uint            `gorm:"primaryKey"                                     json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null"                       json:"user_id"`
	User      *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"user,omitempty"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"total"`
	Items     []OrderItem     `gorm:"constraint:OnDelete:CASCADE;"                   json:"items"`
	CreatedAt time.Time       `                                                      json:"created_at"`
	UpdatedAt time.Time       `                                                      json:"updated_at"`
}

// OrderItem keeps the unit price seen when the line was priced; later product
// price changes never touch it.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                                     json:"id"`
	OrderID   uint            `gorm:"index;not null"                                 json:"order_id"`
	ProductID uint            `gorm:"index;not null"                                 json:"product_id"`
	Product   *Product        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"product,omitempty"`
	Quantity  int             `gorm:"not null;check:quantity > 0"                    json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"subtotal"`
	CreatedAt time.Time       `                                                      json:"created_at"`
	UpdatedAt time.Time       `                                                      json:"updated_at"`
}

func All() []any {
	return []any{&User{}, &AccessToken{}, &Product{}, &Order{}, &OrderItem{}}
}
