package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openrecords/foiad/internal/model"
)

// Agencies cite exemptions in several local styles; these cover the common
// ones seen in denial letters: "b(7)(E)", "(b)(7)(E)", "Exemption 7(E)",
// "Exemption 5".
var exemptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(?b\)?\((\d)\)(?:\(([A-F])\))?`),
	regexp.MustCompile(`(?i)exemption\s+(\d)(?:\(([A-F])\))?`),
}

// ParseDenialReasons extracts structured denial reasons from an agency
// communication. Each distinct exemption code is reported once, in order of
// first appearance, with the line it appeared on as the justification.
func ParseDenialReasons(communication string) []model.DenialReason {
	var reasons []model.DenialReason
	seen := make(map[string]struct{})

	for _, line := range strings.Split(communication, "\n") {
		for _, pattern := range exemptionPatterns {
			for _, match := range pattern.FindAllStringSubmatch(line, -1) {
				code := fmt.Sprintf("b(%s)", match[1])
				if match[2] != "" {
					code = fmt.Sprintf("%s(%s)", code, strings.ToUpper(match[2]))
				}
				if _, dup := seen[code]; dup {
					continue
				}
				seen[code] = struct{}{}
				reasons = append(reasons, model.DenialReason{
					ExemptionCode: code,
					Justification: strings.TrimSpace(line),
				})
			}
		}
	}

	return reasons
}
