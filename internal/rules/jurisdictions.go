package rules

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed jurisdictions.yaml
var jurisdictionsYAML []byte

// Jurisdiction holds the statutory response window, holiday calendar, and
// default fee schedule for one legal regime.
type Jurisdiction struct {
	Code              string
	Name              string
	ResponseDays      int // business days
	PerPageRate       float64
	FreePageAllowance int
	holidays          map[string]struct{} // keyed by YYYY-MM-DD
}

// IsBusinessDay reports whether d counts toward the statutory response
// window: not a weekend and not on the jurisdiction's holiday calendar.
func (j *Jurisdiction) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := j.holidays[d.Format("2006-01-02")]
	return !holiday
}

// UnknownJurisdictionError reports a jurisdiction code absent from the
// statutory table. This is malformed input, not a business outcome.
type UnknownJurisdictionError struct {
	Code string
}

func (e *UnknownJurisdictionError) Error() string {
	return fmt.Sprintf("unknown jurisdiction code %q", e.Code)
}

// JurisdictionTable is the loaded statutory table, queryable by code.
type JurisdictionTable struct {
	byCode map[string]*Jurisdiction
}

type jurisdictionYAML struct {
	Code              string   `yaml:"code"`
	Name              string   `yaml:"name"`
	ResponseDays      int      `yaml:"response_days"`
	PerPageRate       float64  `yaml:"per_page_rate"`
	FreePageAllowance int      `yaml:"free_page_allowance"`
	Holidays          []string `yaml:"holidays"`
}

type jurisdictionsFile struct {
	Jurisdictions []jurisdictionYAML `yaml:"jurisdictions"`
}

// LoadJurisdictions parses the embedded statutory table.
func LoadJurisdictions() (*JurisdictionTable, error) {
	return parseJurisdictions(jurisdictionsYAML)
}

func parseJurisdictions(data []byte) (*JurisdictionTable, error) {
	var file jurisdictionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse jurisdictions: %w", err)
	}

	table := &JurisdictionTable{byCode: make(map[string]*Jurisdiction, len(file.Jurisdictions))}
	for _, jy := range file.Jurisdictions {
		if jy.ResponseDays <= 0 {
			return nil, fmt.Errorf("jurisdiction %s: response_days must be positive", jy.Code)
		}
		j := &Jurisdiction{
			Code:              jy.Code,
			Name:              jy.Name,
			ResponseDays:      jy.ResponseDays,
			PerPageRate:       jy.PerPageRate,
			FreePageAllowance: jy.FreePageAllowance,
			holidays:          make(map[string]struct{}, len(jy.Holidays)),
		}
		for _, h := range jy.Holidays {
			if _, err := time.Parse("2006-01-02", h); err != nil {
				return nil, fmt.Errorf("jurisdiction %s: invalid holiday %q: %w", jy.Code, h, err)
			}
			j.holidays[h] = struct{}{}
		}
		table.byCode[j.Code] = j
	}

	return table, nil
}

// Get returns the jurisdiction for a code, or UnknownJurisdictionError.
func (t *JurisdictionTable) Get(code string) (*Jurisdiction, error) {
	j, ok := t.byCode[code]
	if !ok {
		return nil, &UnknownJurisdictionError{Code: code}
	}
	return j, nil
}
