package models

// User roles. Every account starts as a buyer unless provisioning says otherwise.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User represents a marketplace account. Exactly one of Email/Phone is
// guaranteed present from the identity key used during provisioning; both may
// be present if supplied later.
type User struct {
	BaseModel
	FullName         string `json:"full_name"`
	Email            string `gorm:"uniqueIndex:idx_users_email,where:email <> ''" json:"email,omitempty"`
	Phone            string `gorm:"uniqueIndex:idx_users_phone,where:phone <> ''" json:"phone,omitempty"`
	PasswordHash     string `json:"-"`
	Role             string `gorm:"default:buyer" json:"role"`
	IsVerifiedSeller bool   `json:"is_verified_seller"`
	Address          string `json:"address,omitempty"`
}
