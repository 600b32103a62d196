// Package category assigns a catalog category to an exam or package title by
// keyword matching.
package category

import (
	"strings"
	"unicode"
)

const General = "Geral"

type rule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first rule with a matching keyword wins.
var rules = []rule{
	{"AWS", []string{"aws", "amazon web services", "amazon"}},
	{"Azure", []string{"azure", "microsoft", "az-900", "az-104", "az-204"}},
	{"Google Cloud", []string{"gcp", "google cloud"}},
	{"Kubernetes", []string{"kubernetes", "k8s", "cka", "ckad", "docker"}},
	{"Segurança", []string{"security", "segurança", "seguranca", "cissp", "ceh", "security+"}},
	{"CompTIA", []string{"comptia", "a+", "network+", "linux+"}},
	{"Cisco", []string{"cisco", "ccna", "ccnp"}},
	{"Dados", []string{"data", "dados", "sql", "databricks", "snowflake"}},
	{"Gestão de Projetos", []string{"pmp", "scrum", "itil", "prince2"}},
}

// Detect returns the category for title, or General when nothing matches.
func Detect(title string) string {
	tokens := tokenize(title)
	lower := " " + strings.Join(tokens, " ") + " "
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, " "+kw+" ") {
				return r.category
			}
		}
	}
	return General
}

// OrDetect keeps an explicit category and falls back to Detect.
func OrDetect(explicit, title string) string {
	if c := strings.TrimSpace(explicit); c != "" {
		return c
	}
	return Detect(title)
}

// tokenize lowercases title and splits it on anything that is not a letter,
// digit, '+' or '-', so that "Security+" and "AZ-900" survive intact.
func tokenize(title string) []string {
	return strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '-'
	})
}
