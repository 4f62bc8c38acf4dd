package entity

import "time"

// Customer représente un client facturé par une Company.
type Customer struct {
	ID         string
	CompanyID  string
	Name       string
	TaxID      string // Matricule fiscal du client; requis pour l'envoi TTN
	Address    string
	City       string
	PostalCode string
	Phone      string
	Email      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
