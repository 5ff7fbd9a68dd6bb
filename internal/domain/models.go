package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Item is a catalogued inventory record. The generated ID is the primary
// identity; the name is additionally kept unique so callers can still
// address items by name.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Unit         int       `json:"unit"`
	BuyingPrice  float64   `json:"buyingPrice"`
	Barcode      string    `json:"barcode"`
	DateAdded    time.Time `json:"dateAdded"`
	SellingPrice float64   `json:"sellingPrice"`
	UnitsSold    int       `json:"unitsSold"`
	DateSold     time.Time `json:"dateSold"`
	SoldBy       string    `json:"soldBy"`
}

// User is an account record. Password always holds a bcrypt hash;
// plaintext never reaches persistence.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreationDate time.Time `json:"creationDate"`
	LastLogin    time.Time `json:"lastLogin"`
	Status       string    `json:"status"`
}

// AuditEntry is one immutable record of a completed business action.
// Entries are never edited or removed after creation.
type AuditEntry struct {
	Action       string    `json:"action"`
	Username     string    `json:"username"`
	ItemName     string    `json:"itemName"`
	BuyingPrice  float64   `json:"buyingPrice"`
	SellingPrice float64   `json:"sellingPrice"`
	QuantitySold int       `json:"quantitySold"`
	TotalRevenue float64   `json:"totalRevenue"`
	DateAdded    time.Time `json:"dateAdded"`
	DateSold     time.Time `json:"dateSold"`
	Timestamp    time.Time `json:"timestamp"`
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type ItemCreateRequest struct {
	Name        string  `json:"name"`
	Unit        int     `json:"unit"`
	BuyingPrice float64 `json:"buyingPrice"`
	Barcode     string  `json:"barcode"`
}

type ItemUpdateRequest struct {
	Name        string  `json:"name"`
	Unit        int     `json:"unit"`
	BuyingPrice float64 `json:"buyingPrice"`
	Barcode     string  `json:"barcode"`
}

type SellRequest struct {
	Quantity     int     `json:"quantity"`
	SellingPrice float64 `json:"sellingPrice"`
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type UserUpdateRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// PublicUser is the API projection of User without the password hash.
type PublicUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreationDate time.Time `json:"creationDate"`
	LastLogin    time.Time `json:"lastLogin"`
	Status       string    `json:"status"`
}

// Public strips the credential hash for responses.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		CreationDate: u.CreationDate,
		LastLogin:    u.LastLogin,
		Status:       u.Status,
	}
}
