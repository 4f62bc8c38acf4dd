package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/auth"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/billing"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/usecase"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// RouterDeps dépendances du routeur.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	CompanyUC    *usecase.CompanyUseCase
	CredentialUC *usecase.CredentialUseCase
	CustomerUC   *billing.CustomerUseCase
	InvoiceUC    *billing.InvoiceUseCase
	TTNUC        *ttn.TTNUseCase
	SigningUC    *signing.UseCase
	JWTSecret    string
}

// Router enregistre les routes de l'API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies: la création est publique (onboarding avant le premier login)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Agent local: authentifié par jetons à usage unique, jamais par JWT
	agent := api.Group("/agent")
	agentHandler := NewAgentHandler(deps.SigningUC)
	agent.Post("/pair", agentHandler.Pair)
	agent.Get("/sign-payload", agentHandler.SignPayload)
	agent.Post("/signed-xml", agentHandler.SignedXML)

	// Le retour DigiGo porte le state de session, pas de JWT requis
	signatureHandler := NewSignatureHandler(deps.SigningUC)
	api.Post("/sign/digigo/confirm", signatureHandler.ConfirmDigiGo)

	// Routes protégées (Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Entreprise courante
	protected.Get("/company", companyHandler.Get)
	protected.Put("/company", RequireRole(entity.RoleAdmin), companyHandler.Update)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)

	// Invoices
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Post("/:id/validate", RequireRole(entity.RoleAdmin, entity.RoleComptable), invoiceHandler.Validate)

	// El Fatoora: envoi, planification, consultation
	ttnHandler := NewInvoiceTTNHandler(deps.TTNUC)
	invoices.Post("/:id/ttn/send", RequireRole(entity.RoleAdmin, entity.RoleComptable), ttnHandler.Send)
	invoices.Post("/:id/ttn/schedule", RequireRole(entity.RoleAdmin, entity.RoleComptable), ttnHandler.Schedule)
	invoices.Delete("/:id/ttn/schedule", RequireRole(entity.RoleAdmin, entity.RoleComptable), ttnHandler.CancelSchedule)
	invoices.Get("/:id/ttn/status", ttnHandler.Status)
	invoices.Post("/:id/ttn/consult", ttnHandler.Consult)
	invoices.Get("/:id/ttn/document", ttnHandler.Document)
	invoices.Get("/:id/ttn/events", ttnHandler.Events)

	// Signature (côté utilisateur)
	invoices.Post("/:id/sign/digigo/start", signatureHandler.StartDigiGo)
	invoices.Post("/:id/sign/agent/token", signatureHandler.CreateSignToken)
	protected.Post("/agent/pairing-token", RequireRole(entity.RoleAdmin), signatureHandler.CreatePairingToken)

	// Identifiants El Fatoora (admin seulement)
	credentials := protected.Group("/ttn/credentials", RequireRole(entity.RoleAdmin))
	credentialHandler := NewCredentialHandler(deps.CredentialUC)
	credentials.Get("/", credentialHandler.List)
	credentials.Get("/:environment", credentialHandler.Get)
	credentials.Put("/:environment", credentialHandler.Save)
}
