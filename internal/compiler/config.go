package compiler

// Config is the policy surface for one Compiler instance. It is serialized
// verbatim as the compiler_config section of a host's configuration file.
type Config struct {
	ExtraInstructions bool     `toml:"extra_instructions"`
	KeywordLiterals   bool     `toml:"keyword_literals"`
	FullComparisons   bool     `toml:"full_comparisons"`
	KeywordDelimiter  string   `toml:"keyword_delimiter"`
	CommentPrefixes   []string `toml:"comment_prefixes"`
}

// DefaultConfig is the conservative preset: no extra instructions, strict
// comparisons, a single-quote keyword delimiter, and the minimal comment
// prefix set.
func DefaultConfig() Config {
	return Config{
		ExtraInstructions: false,
		KeywordLiterals:   false,
		FullComparisons:   false,
		KeywordDelimiter:  "'",
		CommentPrefixes:   []string{"note", ";;"},
	}
}

// ExtendedConfig turns on every policy toggle and widens the comment prefix
// set, matching the "extended" preset used by interactive tooling.
func ExtendedConfig() Config {
	return Config{
		ExtraInstructions: true,
		KeywordLiterals:   true,
		FullComparisons:   true,
		KeywordDelimiter:  "'",
		CommentPrefixes:   []string{"note", ";;", "//", "#"},
	}
}

func (c Config) delimiter() byte {
	if len(c.KeywordDelimiter) == 0 {
		return '\''
	}
	return c.KeywordDelimiter[0]
}
