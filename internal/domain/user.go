package domain

import "time"

// UserRole distinguishes the three actor types in the marketplace.
type UserRole string

const (
	RoleTourist UserRole = "TOURIST"
	RoleGuide   UserRole = "GUIDE"
	RoleAdmin   UserRole = "ADMIN"
)

// Interest categories a tourist can subscribe to; aligned with TourCategory.
type Interest string

const (
	InterestNature   Interest = "NATURE"
	InterestArt      Interest = "ART"
	InterestSport    Interest = "SPORT"
	InterestShopping Interest = "SHOPPING"
	InterestFood     Interest = "FOOD"
)

// User is the domain model for all accounts (tourists, guides, admins).
type User struct {
	ID             string
	Username       string
	PasswordHash   string
	FirstName      string
	LastName       string
	Email          string
	Role           UserRole
	Interests      []Interest
	BonusPoints    int
	AwardPoints    int
	IsAwardedGuide bool
	IsMalicious    bool
	IsBlocked      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name for display and notifications.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
