package entity

import "time"

// Company représente une organisation/tenant du système (multi-tenant, contexte Tunisie).
type Company struct {
	ID        string
	Name      string
	TaxID     string // Matricule fiscal tunisien (ex: 1234567A/A/M/000)
	Address   string
	City      string
	PostalCode string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capacités facturation activables par entreprise (table company_capabilities).
const (
	CapabilityInvoicing = "invoicing"
	CapabilityTTN       = "ttn"
	CapabilitySignature = "signature"
)

// CompanyCapability représente l'activation d'une capacité pour une entreprise.
type CompanyCapability struct {
	ID         string
	CompanyID  string
	Capability string // voir constantes Capability*
	IsActive   bool
	ExpiresAt  *time.Time // nil = sans échéance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
