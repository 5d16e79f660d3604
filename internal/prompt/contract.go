// Package prompt holds the fixed prompt contracts and fills their slots.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"fastlookup/internal/domain"
)

// Contract is one of the fixed prompt contracts.
type Contract int

const (
	Lookup Contract = iota
	Recap
	OpenEnded
)

// PassageSeparator joins retrieved passages in a lookup context.
const PassageSeparator = "\n\n---\n\n"

var ErrUnknownContract = errors.New("unknown prompt contract")

// Slots carries the values substituted into a contract template.
// Only the slots a contract declares are used.
type Slots struct {
	Query       string
	Context     string
	RecapText   string
	CurrentPage string
}

type contractDef struct {
	name     string
	tmpl     *template.Template
	sampling domain.Sampling
	refusal  string
}

var contracts = map[Contract]contractDef{
	Lookup: {
		name:     "lookup",
		tmpl:     template.Must(template.New("lookup").Parse(lookupTemplate)),
		sampling: domain.Sampling{Temperature: 0.5, MaxOutputTokens: 150},
		refusal:  "None",
	},
	Recap: {
		name:     "recap",
		tmpl:     template.Must(template.New("recap").Parse(recapTemplate)),
		sampling: domain.Sampling{Temperature: 0.5, MaxOutputTokens: 500},
	},
	OpenEnded: {
		name:     "open_ended",
		tmpl:     template.Must(template.New("open_ended").Parse(openEndedTemplate)),
		sampling: domain.Sampling{Temperature: 0.75, MaxOutputTokens: 250},
		refusal:  "Not enough information.",
	},
}

// Contracts lists every contract in declaration order.
func Contracts() []Contract { return []Contract{Lookup, Recap, OpenEnded} }

func (c Contract) String() string {
	if s, ok := contracts[c]; ok {
		return s.name
	}
	return fmt.Sprintf("Contract(%d)", int(c))
}

// Sampling returns the generation parameters the contract runs with.
func (c Contract) Sampling() domain.Sampling { return contracts[c].sampling }

// Refusal returns the literal answer the contract instructs the model to give
// when the text does not support an answer. Recap has none.
func (c Contract) Refusal() string { return contracts[c].refusal }

// Compose fills the contract's template with slots.
func Compose(c Contract, slots Slots) (string, error) {
	s, ok := contracts[c]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownContract, int(c))
	}
	var sb strings.Builder
	if err := s.tmpl.Execute(&sb, slots); err != nil {
		return "", fmt.Errorf("render %s: %w", s.name, err)
	}
	return sb.String(), nil
}

// ComposeLookup fills the lookup contract.
func ComposeLookup(query, context string) string {
	return mustCompose(Lookup, Slots{Query: query, Context: context})
}

// ComposeRecap fills the recap contract.
func ComposeRecap(recapText string) string {
	return mustCompose(Recap, Slots{RecapText: recapText})
}

// ComposeOpenEnded fills the open-ended contract.
func ComposeOpenEnded(query, context, currentPage string) string {
	return mustCompose(OpenEnded, Slots{Query: query, Context: context, CurrentPage: currentPage})
}

// JoinPassages concatenates retrieved passages in retrieval order.
func JoinPassages(results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Passage.Text
	}
	return strings.Join(texts, PassageSeparator)
}

// mustCompose is only called with known contracts whose templates reference
// fields of Slots, so Execute cannot fail.
func mustCompose(c Contract, slots Slots) string {
	out, err := Compose(c, slots)
	if err != nil {
		panic(err)
	}
	return out
}
