package domain

import "errors"

// Erreurs de domaine (sans dépendances externes).
var (
	ErrNotFound      = errors.New("ressource introuvable")
	ErrInvalidInput  = errors.New("entrée invalide")
	ErrUnauthorized  = errors.New("non authentifié")
	ErrForbidden     = errors.New("accès refusé")
	ErrConflict      = errors.New("conflit avec l'état actuel")
	ErrNotConfigured = errors.New("connecteur TTN non configuré")

	// Pipeline d'envoi TTN.
	ErrInvoiceLocked      = errors.New("facture verrouillée: envoi TTN déjà en cours ou terminé")
	ErrQuoteNotSendable   = errors.New("un devis ne peut pas être envoyé à la TTN")
	ErrCurrencyNotAllowed = errors.New("la facture doit être en TND pour l'envoi TTN")
	ErrValidationRequired = errors.New("validation comptable requise avant l'envoi TTN")
	ErrSignatureRequired  = errors.New("signature requise avant l'envoi TTN")

	// Jetons et sessions de signature (usage unique, TTL court).
	ErrTokenInvalid   = errors.New("jeton invalide")
	ErrTokenUsed      = errors.New("jeton déjà utilisé")
	ErrTokenExpired   = errors.New("jeton expiré")
	ErrSessionInvalid = errors.New("session de signature introuvable ou non pendante")
	ErrSessionExpired = errors.New("session de signature expirée")

	// Appels sortants (webservice TTN, signataire distant).
	ErrRemoteService = errors.New("le service distant a échoué ou n'a pas répondu à temps")
)

// ValidationIssue décrit un champ manquant ou invalide détecté avant l'envoi.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationIssues est la liste des problèmes bloquants d'une facture.
// Implémente error pour remonter la liste complète jusqu'au handler.
type ValidationIssues []ValidationIssue

func (v ValidationIssues) Error() string {
	if len(v) == 0 {
		return "validation: aucun problème"
	}
	msg := v[0].Message
	for _, issue := range v[1:] {
		msg += " | " + issue.Message
	}
	return msg
}
