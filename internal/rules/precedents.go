package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed precedents.yaml
var precedentsYAML []byte

// Precedent is the legal authority and argument template matched to one
// exemption code.
type Precedent struct {
	Code      string
	Citations []string
	Argument  string
}

// PrecedentCatalog maps exemption codes to precedents, with family fallback
// for codes the catalog does not list exactly.
type PrecedentCatalog struct {
	byCode map[string]*Precedent
}

type precedentYAML struct {
	Code      string   `yaml:"code"`
	Citations []string `yaml:"citations"`
	Argument  string   `yaml:"argument"`
}

type precedentsFile struct {
	Precedents []precedentYAML `yaml:"precedents"`
}

// LoadPrecedents parses the embedded precedent catalog.
func LoadPrecedents() (*PrecedentCatalog, error) {
	return parsePrecedents(precedentsYAML)
}

func parsePrecedents(data []byte) (*PrecedentCatalog, error) {
	var file precedentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse precedents: %w", err)
	}

	catalog := &PrecedentCatalog{byCode: make(map[string]*Precedent, len(file.Precedents))}
	for _, py := range file.Precedents {
		if py.Code == "" {
			return nil, fmt.Errorf("precedent entry missing exemption code")
		}
		catalog.byCode[py.Code] = &Precedent{
			Code:      py.Code,
			Citations: py.Citations,
			Argument:  strings.TrimSpace(py.Argument),
		}
	}

	return catalog, nil
}

// Lookup returns the precedent for an exemption code, walking up the
// exemption family when no exact entry exists: b(7)(E) falls back to b(7),
// then to b. The boolean is false when neither the code nor any ancestor
// is cataloged.
func (c *PrecedentCatalog) Lookup(code string) (*Precedent, bool) {
	for cur := code; cur != ""; cur = ExemptionFamily(cur) {
		if p, ok := c.byCode[cur]; ok {
			return p, true
		}
	}
	return nil, false
}

// ExemptionFamily returns the broader exemption family of a code by
// stripping its final parenthesized qualifier: "b(7)(E)" -> "b(7)",
// "b(7)" -> "b". The empty string means no broader family exists.
func ExemptionFamily(code string) string {
	if !strings.HasSuffix(code, ")") {
		return ""
	}
	open := strings.LastIndex(code, "(")
	if open <= 0 {
		return ""
	}
	return code[:open]
}
