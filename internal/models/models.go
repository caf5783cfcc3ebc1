package models

import (
	"slices"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

var Roles = []Role{RoleCustomer, RoleSeller, RoleAdmin}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	Email     string    `gorm:"uniqueIndex;not null"                       json:"email"`
	Password  string    `gorm:"not null"                                   json:"-"`
	Name      string    `                                                  json:"name"`
	Role      Role      `gorm:"type:varchar(16);not null;default:customer" json:"role"`
	CreatedAt time.Time `                                                  json:"created_at"`
	UpdatedAt time.Time `                                                  json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null;index"           json:"name"`
	Description string    `                                json:"description"`
	CreatedAt   time.Time `                                json:"created_at"`
	UpdatedAt   time.Time `                                json:"updated_at"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"                              json:"id"`
	Name        string         `gorm:"not null;index"                                        json:"name"`
	Price       float64        `gorm:"not null"                                              json:"price"`
	Description string         `                                                             json:"description"`
	Stock       int            `gorm:"not null;default:0"                                    json:"stock"`
	CategoryID  *uint          `gorm:"index"                                                 json:"category_id"`
	Category    *Category      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"        json:"category,omitempty"`
	Images      []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;"     json:"-"`
	CreatedAt   time.Time      `                                                             json:"created_at"`
	UpdatedAt   time.Time      `                                                             json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index"                                                 json:"deleted_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	ImageURL  string `gorm:"not null"                 json:"image_url"`
}

// All lists the tables the server migrates at startup.
func All() []any {
	return []any{&User{}, &Category{}, &Product{}, &ProductImage{}}
}
