package compiler

import "github.com/andrascorp/exahost/internal/program"

// Compiler holds one immutable policy configuration and compiles source
// lines against it. A Compiler is safe for concurrent use: Compile never
// mutates the receiver.
type Compiler struct {
	cfg Config
}

// New builds a Compiler from the given policy configuration.
func New(cfg Config) *Compiler {
	return &Compiler{cfg: cfg}
}

// Compile runs the full pipeline — tokenize, expand macros, type-check,
// bake labels, multi-M check — over src. On success it returns a frozen
// Program; on any failure it returns the complete diagnostic list collected
// across every source line rather than stopping at the first error.
func (c *Compiler) Compile(src []string) (*program.Program, []*Error) {
	var errs []*Error

	lines := tokenizeLines(src, c.cfg)
	for _, l := range lines {
		errs = append(errs, l.Errs...)
	}

	expanded, macroErrs := expandMacros(lines, c.cfg)
	errs = append(errs, macroErrs...)

	pending, typeErrs := typecheckAndLower(expanded, c.cfg)
	errs = append(errs, typeErrs...)

	// Baking still runs over whatever lines survived the earlier stages, so
	// label diagnostics land in the same accumulated list as everything else.
	prog, bakeErrs := bakeLabels(pending)
	errs = append(errs, bakeErrs...)

	if len(errs) > 0 {
		return nil, errs
	}
	return prog, nil
}
