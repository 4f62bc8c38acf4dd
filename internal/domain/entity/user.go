package entity

import "time"

// Rôles valides pour User.
const (
	RoleAdmin      = "admin"
	RoleComptable  = "comptable"
	RoleFacturier  = "facturier"
)

// User représente un utilisateur du système (appartient à une Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // hash bcrypt, jamais en clair dans le domaine après persistance
	Name         string
	Role         string // admin, comptable, facturier
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
