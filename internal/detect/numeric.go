package detect

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/halluscan/halluscan/internal/model"
)

// numberRe matches a decimal or integer literal optionally followed by an
// alphabetic/percent/degree unit token. Matches are non-overlapping, in
// textual order.
var numberRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-zA-Z%°]+)?`)

// equationRe matches an explicit arithmetic statement "a op b = c" so that a
// wrong stated result is caught even though the true result never appears in
// the text.
var equationRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([+*x×])\s*(\d+(?:\.\d+)?)\s*=\s*(\d+(?:\.\d+)?)`)

// conversion converts a source value into the target unit: target = value*Scale + Offset.
// Offset is only non-zero for temperature.
type conversion struct {
	Scale  float64
	Offset float64
}

// unitConversions holds known conversion pairs, keyed by lower-cased
// (from, to) unit symbols.
var unitConversions = map[[2]string]conversion{
	// Distance
	{"km", "mi"}: {Scale: 0.621371},
	{"mi", "km"}: {Scale: 1.60934},
	{"m", "ft"}:  {Scale: 3.28084},
	{"ft", "m"}:  {Scale: 0.3048},
	{"cm", "in"}: {Scale: 0.393701},
	{"in", "cm"}: {Scale: 2.54},

	// Weight
	{"kg", "lb"}: {Scale: 2.20462},
	{"lb", "kg"}: {Scale: 0.453592},
	{"g", "oz"}:  {Scale: 0.035274},
	{"oz", "g"}:  {Scale: 28.3495},

	// Temperature (affine)
	{"c", "f"}: {Scale: 9.0 / 5.0, Offset: 32},
	{"f", "c"}: {Scale: 5.0 / 9.0, Offset: -32 * 5.0 / 9.0},

	// Volume
	{"l", "gal"}:    {Scale: 0.264172},
	{"gal", "l"}:    {Scale: 3.78541},
	{"ml", "fl_oz"}: {Scale: 0.033814},
	{"fl_oz", "ml"}: {Scale: 29.5735},
}

// unitGroups are the comparability groups for the pairwise unit check. Unit
// pairs outside a shared group, or pairs with no known conversion, are
// vacuously consistent and emit no finding.
var unitGroups = map[string]map[string]struct{}{
	"distance":    setOf("km", "mi", "m", "ft", "cm", "in"),
	"weight":      setOf("kg", "lb", "g", "oz"),
	"temperature": setOf("c", "f", "°c", "°f"),
}

func setOf(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// NumericChecker verifies unit-conversion and arithmetic consistency among
// the numbers present in a text. It is a pure algorithm: no model, no I/O.
type NumericChecker struct {
	tolerance float64
}

// NewNumericChecker creates a checker with the given relative tolerance for
// conversion checks (also used as the absolute tolerance for arithmetic).
func NewNumericChecker(tolerance float64) *NumericChecker {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &NumericChecker{tolerance: tolerance}
}

// ExtractTokens scans text left-to-right for numeric literals with optional
// adjacent units. No token overlaps another.
func (c *NumericChecker) ExtractTokens(text string) []model.NumericToken {
	var tokens []model.NumericToken

	for _, m := range numberRe.FindAllStringSubmatchIndex(text, -1) {
		value, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}

		tok := model.NumericToken{
			Value: value,
			Start: m[0],
			End:   m[1],
			Text:  text[m[0]:m[1]],
		}
		if m[4] != -1 {
			tok.RawUnit = text[m[4]:m[5]]
			tok.Unit = strings.ToLower(tok.RawUnit)
		}
		tokens = append(tokens, tok)
	}

	return tokens
}

// Check runs all consistency checks over text and returns the sanity score
// with the findings that produced it. With no numbers (or numbers but no
// relational findings) the score is exactly 1.0: no evidence of
// inconsistency.
func (c *NumericChecker) Check(text string) (float64, []model.ConsistencyFinding) {
	tokens := c.ExtractTokens(text)
	if len(tokens) == 0 {
		return 1.0, []model.ConsistencyFinding{}
	}

	findings := c.checkEquations(text)
	findings = append(findings, c.checkArithmetic(tokens, findings)...)
	findings = append(findings, c.checkUnits(tokens)...)

	inconsistent := 0
	for _, f := range findings {
		if !f.Consistent {
			inconsistent++
		}
	}

	total := len(findings)
	if total == 0 {
		return 1.0, []model.ConsistencyFinding{}
	}
	return 1.0 - float64(inconsistent)/float64(total), findings
}

// checkEquations verifies explicitly stated arithmetic ("15 + 27 = 45").
// The stated result is compared against the computed one, so a wrong result
// yields an inconsistent finding even when the correct value appears nowhere
// in the text.
func (c *NumericChecker) checkEquations(text string) []model.ConsistencyFinding {
	var findings []model.ConsistencyFinding

	for _, m := range equationRe.FindAllStringSubmatchIndex(text, -1) {
		a, errA := strconv.ParseFloat(text[m[2]:m[3]], 64)
		b, errB := strconv.ParseFloat(text[m[6]:m[7]], 64)
		stated, errC := strconv.ParseFloat(text[m[8]:m[9]], 64)
		if errA != nil || errB != nil || errC != nil {
			continue
		}

		op := text[m[4]:m[5]]
		kind := model.FindingArithmeticSum
		expected := a + b
		if op != "+" {
			kind = model.FindingArithmeticProduct
			expected = a * b
		}

		operands := []model.NumericToken{
			{Value: a, Start: m[2], End: m[3], Text: text[m[2]:m[3]]},
			{Value: b, Start: m[6], End: m[7], Text: text[m[6]:m[7]]},
			{Value: stated, Start: m[8], End: m[9], Text: text[m[8]:m[9]]},
		}

		findings = append(findings, model.ConsistencyFinding{
			Kind:       kind,
			Operands:   operands,
			Expected:   expected,
			Observed:   stated,
			Consistent: math.Abs(expected-stated) <= c.tolerance,
		})
	}

	return findings
}

// checkArithmetic looks for a third, distinct token equal to the sum or the
// product of an ordered token pair. The engine only verifies relationships
// among numbers that are all present in the text; it never searches for
// numbers that should exist but are missing.
func (c *NumericChecker) checkArithmetic(tokens []model.NumericToken, prior []model.ConsistencyFinding) []model.ConsistencyFinding {
	covered := make(map[string]struct{}, len(prior))
	for _, f := range prior {
		if len(f.Operands) == 3 {
			covered[operandKey(f.Kind, f.Operands)] = struct{}{}
		}
	}

	var findings []model.ConsistencyFinding

	for i := 0; i < len(tokens); i++ {
		for j := i + 1; j < len(tokens); j++ {
			t1, t2 := tokens[i], tokens[j]

			// Incompatible unit context: skip the pair.
			if t1.Unit != "" && t2.Unit != "" && t1.Unit != t2.Unit {
				continue
			}

			for k := 0; k < len(tokens); k++ {
				if k == i || k == j {
					continue
				}
				t3 := tokens[k]

				for _, rel := range []struct {
					kind     model.FindingKind
					expected float64
				}{
					{model.FindingArithmeticSum, t1.Value + t2.Value},
					{model.FindingArithmeticProduct, t1.Value * t2.Value},
				} {
					if math.Abs(t3.Value-rel.expected) > c.tolerance {
						continue
					}
					operands := []model.NumericToken{t1, t2, t3}
					key := operandKey(rel.kind, operands)
					if _, dup := covered[key]; dup {
						continue
					}
					covered[key] = struct{}{}
					findings = append(findings, model.ConsistencyFinding{
						Kind:       rel.kind,
						Operands:   operands,
						Expected:   rel.expected,
						Observed:   t3.Value,
						Consistent: true,
					})
				}
			}
		}
	}

	return findings
}

// checkUnits runs the pairwise conversion check within each comparability
// group. Only failed conversions produce findings.
func (c *NumericChecker) checkUnits(tokens []model.NumericToken) []model.ConsistencyFinding {
	var findings []model.ConsistencyFinding

	for group, units := range unitGroups {
		var members []model.NumericToken
		for _, t := range tokens {
			if t.Unit == "" {
				continue
			}
			if _, ok := units[t.Unit]; ok {
				members = append(members, t)
			}
		}

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				t1, t2 := members[i], members[j]
				if t1.Unit == t2.Unit {
					continue
				}
				ok, expected := c.CheckUnitConversion(t1.Value, t1.Unit, t2.Value, t2.Unit)
				if !ok {
					findings = append(findings, model.ConsistencyFinding{
						Kind:       model.FindingUnitMismatch,
						Operands:   []model.NumericToken{t1, t2},
						Expected:   expected,
						Observed:   t2.Value,
						Consistent: false,
						Group:      group,
					})
				}
			}
		}
	}

	return findings
}

// CheckUnitConversion reports whether value1 unit1 and value2 unit2 agree
// under a known conversion, within the relative tolerance. Unknown unit
// pairs are vacuously consistent: the checker reports what it can verify.
// The second return is the value expected in unit2 when a conversion exists.
func (c *NumericChecker) CheckUnitConversion(value1 float64, unit1 string, value2 float64, unit2 string) (bool, float64) {
	if unit1 == "" || unit2 == "" {
		return true, value2
	}

	u1 := normalizeUnit(unit1)
	u2 := normalizeUnit(unit2)

	if conv, ok := unitConversions[[2]string{u1, u2}]; ok {
		converted := value1*conv.Scale + conv.Offset
		return withinRelative(converted, value2, c.tolerance), converted
	}
	if conv, ok := unitConversions[[2]string{u2, u1}]; ok {
		converted := value2*conv.Scale + conv.Offset
		expected := (value1 - conv.Offset) / conv.Scale
		return withinRelative(converted, value1, c.tolerance), expected
	}

	return true, value2
}

// normalizeUnit lower-cases a unit symbol and strips a degree prefix so that
// "°C" and "C" share one conversion entry.
func normalizeUnit(unit string) string {
	return strings.TrimPrefix(strings.ToLower(unit), "°")
}

func withinRelative(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(math.Abs(a), math.Abs(b))
}

func operandKey(kind model.FindingKind, operands []model.NumericToken) string {
	return fmt.Sprintf("%s:%d:%d:%d", kind, operands[0].Start, operands[1].Start, operands[2].Start)
}
