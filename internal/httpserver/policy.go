package httpserver

import "github.com/Skotchmaster/shop_admin/internal/models"

type Permission string

const (
	ProductList    Permission = "product.list"
	ProductGet     Permission = "product.get"
	ProductSearch  Permission = "product.search"
	ProductCreate  Permission = "product.create"
	ProductUpdate  Permission = "product.update"
	ProductDelete  Permission = "product.delete"
	ProductRestore Permission = "product.restore"

	CategoryList     Permission = "category.list"
	CategoryGet      Permission = "category.get"
	CategoryProducts Permission = "category.products"
	CategoryCreate   Permission = "category.create"
	CategoryUpdate   Permission = "category.update"
	CategoryDelete   Permission = "category.delete"

	AccountMe Permission = "account.me"
)

var (
	public        []models.Role
	authenticated = []models.Role{models.RoleCustomer, models.RoleSeller, models.RoleAdmin}
	adminOnly     = []models.Role{models.RoleAdmin}
)

// Policy is the single role matrix every route is registered against.
// An empty role set marks a public route.
var Policy = map[Permission][]models.Role{
	ProductList:    authenticated,
	ProductGet:     authenticated,
	ProductSearch:  authenticated,
	ProductCreate:  adminOnly,
	ProductUpdate:  adminOnly,
	ProductDelete:  adminOnly,
	ProductRestore: adminOnly,

	CategoryList:     public,
	CategoryGet:      public,
	CategoryProducts: authenticated,
	CategoryCreate:   adminOnly,
	CategoryUpdate:   adminOnly,
	CategoryDelete:   adminOnly,

	AccountMe: authenticated,
}

// RolesFor panics on a permission missing from Policy so a route can never
// be registered without an explicit decision.
func RolesFor(p Permission) []models.Role {
	roles, ok := Policy[p]
	if !ok {
		panic("httpserver: no policy for " + string(p))
	}
	return roles
}
