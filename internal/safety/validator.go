// Package safety rejects non-food and dangerous inputs before they reach the
// LLM or the database. This server-side check is authoritative; any client
// check is a best-effort duplicate.
package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// BlockedTermError reports the first blocked term found in an input item.
type BlockedTermError struct {
	Item string
	Term string
}

func (e *BlockedTermError) Error() string {
	return fmt.Sprintf("input %q contains blocked term %q", e.Item, e.Term)
}

// ingredientBlocklist covers non-food and unsafe terms. Matching is
// case-insensitive on word boundaries.
var ingredientBlocklist = []string{
	"rato",
	"barata",
	"lagartixa",
	"inseto",
	"mofo",
	"veneno",
	"sabão",
	"detergente",
	"alvejante",
	"amaciante",
	"terra",
	"areia",
	"pedra",
	"vidro",
	"plástico",
	"isopor",
	"papel",
	"gasolina",
	"querosene",
	"tinta",
	"cola",
}

// equipmentBlocklist covers weapons and hazardous chemicals that must never be
// persisted as kitchen equipment.
var equipmentBlocklist = []string{
	"arma",
	"pistola",
	"revólver",
	"espingarda",
	"munição",
	"explosivo",
	"dinamite",
	"ácido",
	"soda cáustica",
	"veneno",
	"gasolina",
	"alvejante",
}

// "sal da terra" is a legitimate artisanal salt; it must not trip the "terra"
// entry.
const allowedPhrase = "sal da terra"

var termPatterns = buildPatterns(append(append([]string{}, ingredientBlocklist...), equipmentBlocklist...))

func buildPatterns(terms []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(terms))
	for _, term := range terms {
		if _, ok := patterns[term]; ok {
			continue
		}
		// \b does not handle accented letters; bound on any non-letter instead.
		patterns[term] = regexp.MustCompile(`(^|[^\p{L}])` + regexp.QuoteMeta(term) + `([^\p{L}]|$)`)
	}
	return patterns
}

// CheckIngredients fails with a BlockedTermError on the first unsafe or
// non-food item found.
func CheckIngredients(items []string) error {
	return check(items, ingredientBlocklist)
}

// CheckEquipment fails with a BlockedTermError on the first dangerous
// equipment entry. Run before persisting profile updates.
func CheckEquipment(items []string) error {
	return check(items, equipmentBlocklist)
}

func check(items []string, blocklist []string) error {
	for _, item := range items {
		lowered := strings.ToLower(strings.TrimSpace(item))
		if lowered == "" {
			continue
		}
		scanned := strings.ReplaceAll(lowered, allowedPhrase, "")
		for _, term := range blocklist {
			if termPatterns[term].MatchString(scanned) {
				return &BlockedTermError{Item: item, Term: term}
			}
		}
	}
	return nil
}
