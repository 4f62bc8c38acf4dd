package teif

import (
	"strings"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// MapEtat interprète le champ `etat` renvoyé par consultEfact. Les libellés
// varient selon l'environnement (FR/abréviations), d'où une correspondance
// tolérante par sous-chaîne. unambiguous=false signifie que l'état brut
// n'a pas été reconnu et que "submitted" n'est qu'une valeur par défaut.
func MapEtat(etat string) (status string, unambiguous bool) {
	upper := strings.ToUpper(strings.TrimSpace(etat))
	switch {
	case upper == "":
		return entity.TTNStatusSubmitted, false
	// Les marqueurs de refus priment: "ERREUR DE VALIDATION" est un rejet
	// malgré la sous-chaîne "VALI".
	case strings.Contains(upper, "REJET"),
		strings.Contains(upper, "REFUS"),
		strings.Contains(upper, "ERREUR"),
		hasWord(upper, "KO"),
		upper == "R":
		return entity.TTNStatusRejected, true
	case strings.Contains(upper, "ACCEP"),
		strings.Contains(upper, "VALI"),
		hasWord(upper, "OK"),
		upper == "V":
		return entity.TTNStatusAccepted, true
	default:
		return entity.TTNStatusSubmitted, false
	}
}

// hasWord cherche le mot entier, pas la sous-chaîne: "BROKEN" ne contient
// pas le mot OK.
func hasWord(upper, word string) bool {
	for _, w := range strings.FieldsFunc(upper, func(r rune) bool {
		return r < 'A' || r > 'Z'
	}) {
		if w == word {
			return true
		}
	}
	return false
}

// NextStatus applique l'état consulté à l'état courant de la facture.
// Un état terminal (accepted/rejected) n'est jamais écrasé par un
// "submitted" par défaut issu d'un libellé non reconnu; une décision
// claire de la TTN, elle, fait toujours foi.
func NextStatus(current, etat string) (string, bool) {
	mapped, unambiguous := MapEtat(etat)
	if entity.TTNStatusTerminal(current) && !unambiguous {
		return current, false
	}
	if mapped == current {
		return current, false
	}
	return mapped, true
}
