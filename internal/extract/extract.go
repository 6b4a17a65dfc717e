// Package extract contains the free-text field parsers for the quoting
// dialog. Every function is a pure best-effort heuristic: it either returns
// a value satisfying the field's domain constraint, or reports no match.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"cargoquote-backend/internal/models"
)

var (
	millionRe = regexp.MustCompile(`(\d[\d\s]{0,12})\s*(?:млн|миллион)`)
	bareSumRe = regexp.MustCompile(`\d[\d\s]{5,}`)
	digitsRe  = regexp.MustCompile(`\s+`)
	ordinalRe = regexp.MustCompile(`^\d{1,2}$`)
	cargoIDRe = regexp.MustCompile(`^CARGO\d{3}$`)
)

// Money parses an insured sum in rubles: a number with a "million" marker
// (scaled accordingly) or a bare run of at least six digits.
func Money(text string) (int64, bool) {
	tl := strings.ToLower(text)

	if m := millionRe.FindStringSubmatch(tl); m != nil {
		num, err := strconv.ParseInt(digitsRe.ReplaceAllString(m[1], ""), 10, 64)
		if err == nil && num > 0 {
			return num * 1_000_000, true
		}
	}

	if m := bareSumRe.FindString(text); m != "" {
		digits := digitsRe.ReplaceAllString(m, "")
		if len(digits) >= 6 {
			num, err := strconv.ParseInt(digits, 10, 64)
			if err == nil && num > 0 {
				return num, true
			}
		}
	}

	return 0, false
}

// Condition recognizes NEW/USED, both as canonical codes and as the
// colloquial Russian forms.
func Condition(text string) (string, bool) {
	tl := strings.ToLower(strings.TrimSpace(text))

	switch tl {
	case "new":
		return models.ConditionNew, true
	case "used":
		return models.ConditionUsed, true
	}

	if strings.Contains(tl, "б/у") || strings.Contains(tl, " бу ") ||
		strings.HasPrefix(tl, "бу") || strings.Contains(tl, "подерж") {
		return models.ConditionUsed, true
	}
	if strings.Contains(tl, "нов") {
		return models.ConditionNew, true
	}

	return "", false
}

// Franchise matches one of the two offered deductibles, either as the exact
// amount (including "20к"/"20k" shorthand) or as a franchise-referring phrase
// carrying the magnitude.
func Franchise(text string) (int64, bool) {
	tl := strings.ToLower(strings.TrimSpace(text))
	compact := digitsRe.ReplaceAllString(tl, "")

	switch compact {
	case "20000", "20к", "20k":
		return 20000, true
	case "50000", "50к", "50k":
		return 50000, true
	}

	mentionsFranchise := strings.Contains(tl, "франш") || strings.Contains(tl, "фр")
	if !mentionsFranchise {
		return 0, false
	}

	// Both magnitudes present: the later option wins, as the source did.
	var value int64
	if strings.Contains(tl, "20") {
		value = 20000
	}
	if strings.Contains(tl, "50") {
		value = 50000
	}
	return value, value != 0
}

var (
	affirmTokens = map[string]struct{}{
		"да": {}, "верно": {}, "правильно": {}, "ок": {}, "конечно": {},
		"ага": {}, "yes": {}, "y": {}, "ok": {},
	}
	negativeTokens = map[string]struct{}{
		"нет": {}, "неверно": {}, "no": {}, "n": {},
	}
)

// YesNo parses an affirmative or negative answer from a small fixed
// vocabulary.
func YesNo(text string) (bool, bool) {
	tl := strings.ToLower(strings.TrimSpace(text))
	if _, ok := affirmTokens[tl]; ok {
		return true, true
	}
	if _, ok := negativeTokens[tl]; ok {
		return false, true
	}
	return false, false
}

// Reefer parses the refrigeration flag: negated refrigeration tokens mean
// false, bare refrigeration tokens mean true, plain yes/no also counts.
func Reefer(text string) (bool, bool) {
	tl := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(tl, "без реф") ||
		(strings.Contains(tl, "не") && strings.Contains(tl, "реф")) {
		return false, true
	}
	if strings.Contains(tl, "реф") || strings.Contains(tl, "холод") {
		return true, true
	}

	return YesNo(text)
}

// RouteZone matches one of the three canonical route zones, including the
// exact canonical strings themselves.
func RouteZone(text string) (string, bool) {
	tl := strings.ToLower(strings.TrimSpace(text))

	for _, zone := range models.RouteZones {
		if tl == strings.ToLower(zone) {
			return zone, true
		}
	}

	switch {
	case strings.Contains(tl, "снг"):
		return models.RouteZoneCIS, true
	case strings.Contains(tl, "весь мир"):
		return models.RouteZoneWorld, true
	case strings.Contains(tl, "рф"), strings.Contains(tl, "росс"):
		return models.RouteZoneRF, true
	}

	return "", false
}

// MenuChoice resolves a manual cargo selection: an exact whitelist code or a
// 1-based ordinal into the fixed cargo-class list.
func MenuChoice(text string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))

	if cargoIDRe.MatchString(t) && models.IsCargoClass(t) {
		return t, true
	}

	if ordinalRe.MatchString(t) {
		n, err := strconv.Atoi(t)
		if err == nil {
			if c, ok := models.CargoClassByIndex(n); ok {
				return c.ID, true
			}
		}
	}

	return "", false
}
