package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var KernelLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"DocComment", `///[^\n]*`, nil},
		// Comments
		{"Comment", `//[^\n]*`, nil},

		// Mnemonics and identifiers. Dots are included so dotted forms like
		// tid.x and icmp.slt lex as a single token.
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.]*`, nil},

		// Integer literals (operand constants, block/param indices).
		{"Integer", `[0-9]+`, nil},

		// Punctuation
		{"Punctuation", `[%=,(){}\[\]@:]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
