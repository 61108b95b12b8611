package compiler

import (
	"strconv"
	"strings"
)

// expandMacros runs stage (b): exactly one repeat depth, @rep N / @end
// delimited, with @{a,b} substitution inside the body.
func expandMacros(lines []*Line, cfg Config) ([]*Line, []*Error) {
	var out []*Line
	var errs []*Error

	collecting := false
	repStart := -1
	repeats := 0

	for i, l := range lines {
		if isMacroStart(l) {
			if collecting {
				errs = append(errs, newErr(l.Row, 1, ErrNestedMacros, ""))
				continue
			}
			n, ok := repCount(l)
			if !ok {
				errs = append(errs, newErr(l.Row, 1, ErrInvalidMacroSyntax, ""))
				continue
			}
			collecting = true
			repStart = i
			repeats = n
			continue
		}
		if isMacroEnd(l) {
			if !collecting {
				errs = append(errs, newErr(l.Row, 1, ErrMissingRepTag, ""))
				continue
			}
			body := lines[repStart+1 : i]
			for k := 0; k < repeats; k++ {
				for _, bl := range body {
					expanded, err := substituteLine(bl, k, cfg)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					out = append(out, expanded)
				}
			}
			collecting = false
			continue
		}
		if collecting {
			continue // body lines are consumed when @end closes the macro
		}
		out = append(out, l)
	}

	if collecting {
		errs = append(errs, newErr(lines[repStart].Row, 1, ErrMissingEndTag, ""))
	}
	return out, errs
}

func isMacroStart(l *Line) bool {
	return len(l.Tokens) > 0 && l.Tokens[0].Type == TMacroStart
}

func isMacroEnd(l *Line) bool {
	return len(l.Tokens) == 1 && l.Tokens[0].Type == TMacroEnd
}

// repCount extracts the repeat count from an @rep line. A missing or
// non-numeric count is a syntax error.
func repCount(l *Line) (int, bool) {
	if len(l.Tokens) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(l.Tokens[1].Content)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// substituteLine copies a body line, rewriting every @{a,b} placeholder to
// the decimal of a + b*k, then re-infers the token's type as though the
// substituted text had appeared literally in the source.
func substituteLine(l *Line, k int, cfg Config) (*Line, *Error) {
	nl := &Line{Row: l.Row}
	for _, t := range l.Tokens {
		content := t.Content
		for {
			loc := macroReplacePattern.FindStringIndex(content)
			if loc == nil {
				break
			}
			a, b, ok := splitSubstitutionParams(content[loc[0]:loc[1]])
			if !ok {
				return nil, newErr(l.Row, t.Col, ErrInvalidMacroSyntax, content)
			}
			repl := strconv.Itoa(a + b*k)
			content = content[:loc[0]] + repl + content[loc[1]:]
		}
		tt := t.Type
		if t.Type == TMacroReplace || content != t.Content {
			tt = inferArgType(content, cfg)
		}
		nl.Tokens = append(nl.Tokens, Token{Row: t.Row, Col: t.Col, Content: content, Type: tt})
	}
	return nl, nil
}

// splitSubstitutionParams parses "@{a,b}" into its two signed integers.
func splitSubstitutionParams(s string) (a, b int, ok bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "@{"), "}")
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	av, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	bv, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if av < int(NumberMinForMacro) || av > int(NumberMaxForMacro) || bv < int(NumberMinForMacro) || bv > int(NumberMaxForMacro) {
		return 0, 0, false
	}
	return av, bv, true
}

// NumberMinForMacro/NumberMaxForMacro restate the Number domain locally for
// the bounds check on @{a,b} parameters during macro substitution.
const (
	NumberMinForMacro = -9999
	NumberMaxForMacro = 9999
)
