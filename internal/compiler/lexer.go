package compiler

import (
	"regexp"
	"strconv"
	"strings"
)

// macroReplacePattern matches one @{a,b} substitution placeholder. No space
// is permitted around the comma.
var macroReplacePattern = regexp.MustCompile(`@\{-?\d{1,4},-?\d{1,4}\}`)

// tokenizeLines runs stage (a) of the pipeline over every source line.
func tokenizeLines(src []string, cfg Config) []*Line {
	lines := make([]*Line, len(src))
	for i, raw := range src {
		lines[i] = tokenizeLine(raw, i+1, cfg)
	}
	return lines
}

func tokenizeLine(raw string, row int, cfg Config) *Line {
	line := &Line{Row: row}

	lower := strings.ToLower(raw)
	for _, prefix := range cfg.CommentPrefixes {
		if strings.HasPrefix(lower, prefix) {
			line.Tokens = append(line.Tokens, Token{Row: row, Col: 1, Content: raw, Type: TComment})
			return line
		}
	}

	if len(raw) < 4 {
		line.addErr(newErr(row, 1, ErrUnknownInstruction, raw))
		return line
	}

	opText := raw[:4]
	opLower := strings.ToLower(opText)

	if opLower == "@rep" {
		line.Tokens = append(line.Tokens, Token{Row: row, Col: 1, Content: opText, Type: TMacroStart})
		appendArgTokens(line, raw, cfg)
		return line
	}
	if opLower == "@end" {
		line.Tokens = append(line.Tokens, Token{Row: row, Col: 1, Content: opText, Type: TMacroEnd})
		return line
	}

	line.Tokens = append(line.Tokens, Token{Row: row, Col: 1, Content: opLower, Type: TOpCode})
	appendArgTokens(line, raw, cfg)

	// Fuse "test eof" / "test mrd" into a single two-word opcode token.
	if opLower == "test" && len(line.Tokens) >= 2 {
		second := line.Tokens[1]
		word := strings.ToLower(second.Content)
		if word == "eof" || word == "mrd" {
			line.Tokens[0].Content = "test " + word
			line.Tokens = append(line.Tokens[:1], line.Tokens[2:]...)
		}
	}
	return line
}

// appendArgTokens slices everything from column 5 onward into argument
// tokens, honoring the configured keyword delimiter, then classifies each.
func appendArgTokens(line *Line, raw string, cfg Config) {
	if len(raw) <= 4 {
		return
	}
	rest := raw[4:]
	if len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	baseCol := len(raw) - len(rest) + 1

	delim := cfg.delimiter()
	var cur strings.Builder
	curCol := baseCol
	inKeyword := false
	started := false

	flush := func(endCol int) {
		if !started {
			return
		}
		content := cur.String()
		tt := inferArgType(content, cfg)
		line.Tokens = append(line.Tokens, Token{Row: line.Row, Col: curCol, Content: content, Type: tt})
		cur.Reset()
		started = false
	}

	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		col := baseCol + i
		switch {
		case inKeyword:
			cur.WriteByte(ch)
			if ch == delim {
				inKeyword = false
				flush(col + 1)
			}
		case ch == ' ':
			flush(col)
		case ch == delim:
			if !started {
				curCol = col
			}
			started = true
			inKeyword = true
			cur.WriteByte(ch)
		default:
			if !started {
				curCol = col
				started = true
			}
			cur.WriteByte(ch)
		}
	}
	flush(baseCol + len(rest))
}

func inferArgType(content string, cfg Config) TokenType {
	if macroReplacePattern.MatchString(content) {
		return TMacroReplace
	}
	delim := cfg.delimiter()
	if len(content) >= 2 && content[0] == delim && content[len(content)-1] == delim {
		return TKeyword
	}
	if _, err := strconv.Atoi(content); err == nil {
		return TNumber
	}
	if len(content) == 1 {
		up := strings.ToUpper(content)
		if up == "X" || up == "T" || up == "F" || up == "M" {
			return TRegisterLabel
		}
	}
	if strings.HasPrefix(content, "#") {
		return TRegisterLabel
	}
	if isComparisonSymbol(content, cfg) {
		return TComparison
	}
	return TJumpLabel
}

func isComparisonSymbol(s string, cfg Config) bool {
	switch s {
	case "=", ">", "<":
		return true
	case ">=", "<=", "!=":
		return cfg.FullComparisons
	default:
		return false
	}
}
