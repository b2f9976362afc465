package userentity

type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	FullName       string `json:"full_name"`
	IsActive       bool   `json:"is_active"`
}
