// Package program defines the frozen, wire-stable representation of a
// compiled EXA program: values, register labels, comparison operators,
// arguments and instructions.
package program

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

const (
	// NumberMin and NumberMax bound every Number value. Writes saturate to
	// this range rather than overflow or error.
	NumberMin int16 = -9999
	NumberMax int16 = 9999
)

// Value is the universal EXA datum: either a clamped signed integer or a
// short immutable keyword string. The zero Value is Number(0).
type Value struct {
	isKeyword bool
	number    int16
	keyword   string
}

// Number constructs a Number value, saturating it into [NumberMin, NumberMax].
func Number(n int) Value {
	return Value{number: Clamp(n)}
}

// Keyword constructs a Keyword value.
func Keyword(s string) Value {
	return Value{isKeyword: true, keyword: s}
}

// Clamp saturates an arbitrary int into the Number domain.
func Clamp(n int) int16 {
	if n < int(NumberMin) {
		return NumberMin
	}
	if n > int(NumberMax) {
		return NumberMax
	}
	return int16(n)
}

// IsKeyword reports whether the value holds a keyword rather than a number.
func (v Value) IsKeyword() bool { return v.isKeyword }

// Int returns the numeric payload; valid only when !IsKeyword().
func (v Value) Int() int { return int(v.number) }

// Str returns the keyword payload; valid only when IsKeyword().
func (v Value) Str() string { return v.keyword }

// Truthy implements the Jump/Tjmp/Fjmp truthiness rule: a Number is truthy
// when non-zero, a Keyword is truthy when non-empty.
func (v Value) Truthy() bool {
	if v.isKeyword {
		return v.keyword != ""
	}
	return v.number != 0
}

// Equal reports pointwise equality; values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.isKeyword != o.isKeyword {
		return false
	}
	if v.isKeyword {
		return v.keyword == o.keyword
	}
	return v.number == o.number
}

// Compare orders two values of the same kind. The second return value is
// false when the values are not comparable (different kinds), matching the
// "ordering undefined across variants" rule.
func (v Value) Compare(o Value) (result int, ok bool) {
	if v.isKeyword != o.isKeyword {
		return 0, false
	}
	if v.isKeyword {
		switch {
		case v.keyword < o.keyword:
			return -1, true
		case v.keyword > o.keyword:
			return 1, true
		default:
			return 0, true
		}
	}
	switch {
	case v.number < o.number:
		return -1, true
	case v.number > o.number:
		return 1, true
	default:
		return 0, true
	}
}

// wireValue mirrors Value with exported fields so a PackedExa carrying
// registers and file contents can cross the link protocol's gob encoding,
// which only ever sees a type's exported surface.
type wireValue struct {
	IsKeyword bool
	Number    int16
	Keyword   string
}

// GobEncode implements gob.GobEncoder.
func (v Value) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := wireValue{IsKeyword: v.isKeyword, Number: v.number, Keyword: v.keyword}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (v *Value) GobDecode(data []byte) error {
	var w wireValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	v.isKeyword = w.IsKeyword
	v.number = w.Number
	v.keyword = w.Keyword
	return nil
}

func (v Value) String() string {
	if v.isKeyword {
		return fmt.Sprintf("'%s'", v.keyword)
	}
	return fmt.Sprintf("%d", v.number)
}

// RegKind enumerates the storage locations an Argument may name.
type RegKind uint8

const (
	RegX RegKind = iota
	RegT
	RegF
	RegM
	RegH // hardware register; Name carries the uppercased label
)

// RegLabel names a register: X, T, F, M, or a hardware register H(name).
type RegLabel struct {
	Kind RegKind
	Name string // only meaningful when Kind == RegH
}

func (r RegLabel) String() string {
	switch r.Kind {
	case RegX:
		return "X"
	case RegT:
		return "T"
	case RegF:
		return "F"
	case RegM:
		return "M"
	case RegH:
		return "#" + r.Name
	default:
		return "?"
	}
}

// Comp is a comparison operator usable with the test instruction.
type Comp uint8

const (
	CompEq Comp = iota
	CompGt
	CompLt
	CompGe
	CompLe
	CompNe
)

var compSymbols = [...]string{"=", ">", "<", ">=", "<=", "!="}

func (c Comp) String() string {
	if int(c) < len(compSymbols) {
		return compSymbols[c]
	}
	return fmt.Sprintf("comp(%d)", c)
}

// ParseComp maps a source symbol to a Comp. full reports whether the
// full_comparisons policy (>=, <=, !=) is in effect.
func ParseComp(sym string, full bool) (Comp, bool) {
	switch sym {
	case "=":
		return CompEq, true
	case ">":
		return CompGt, true
	case "<":
		return CompLt, true
	case ">=":
		if full {
			return CompGe, true
		}
	case "<=":
		if full {
			return CompLe, true
		}
	case "!=":
		if full {
			return CompNe, true
		}
	}
	return 0, false
}

// Eval applies the comparison to an ordering result produced by Value.Compare.
func (c Comp) Eval(ordering int) bool {
	switch c {
	case CompEq:
		return ordering == 0
	case CompGt:
		return ordering > 0
	case CompLt:
		return ordering < 0
	case CompGe:
		return ordering >= 0
	case CompLe:
		return ordering <= 0
	case CompNe:
		return ordering != 0
	default:
		return false
	}
}
