package lexer

import (
	"fmt"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenPipe     TokenType = iota // |
	TokenArrow                     // =>
	TokenLBrace                    // {
	TokenRBrace                    // }
	TokenLParen                    // (
	TokenRParen                    // )
	TokenLBracket                  // [
	TokenRBracket                  // ]
	TokenComma                     // ,
	TokenEquals                    // = (assignment / named argument)
	TokenDot                       // .
	TokenSemi                      // ;
	TokenAt                        // @
	TokenStar                      // * (don't care)
	TokenTilde                     // ~ (like-variant suffix)

	// Comparison operators
	TokenEq   // ==
	TokenNeq  // !=
	TokenLike // =~
	TokenLt   // <
	TokenGt   // >
	TokenLte  // <=
	TokenGte  // >=

	// Keywords
	TokenAnd    // and
	TokenOr     // or
	TokenNot    // not
	TokenTrue   // true
	TokenFalse  // false
	TokenNull   // null
	TokenLet    // let
	TokenExists // exists
	TokenOn     // on
	TokenBy     // by
	TokenAsc    // asc
	TokenDesc   // desc
	TokenAs     // as
	TokenIn     // in

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal"

	// Identifiers
	TokenIdent // field, channel, device kind, op name

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenPipe: "|", TokenArrow: "=>", TokenLBrace: "{", TokenRBrace: "}",
	TokenLParen: "(", TokenRParen: ")", TokenLBracket: "[", TokenRBracket: "]",
	TokenComma: ",", TokenEquals: "=", TokenDot: ".", TokenSemi: ";",
	TokenAt: "@", TokenStar: "*", TokenTilde: "~",
	TokenEq: "==", TokenNeq: "!=", TokenLike: "=~",
	TokenLt: "<", TokenGt: ">", TokenLte: "<=", TokenGte: ">=",
	TokenAnd: "and", TokenOr: "or", TokenNot: "not",
	TokenTrue: "true", TokenFalse: "false", TokenNull: "null",
	TokenLet: "let", TokenExists: "exists", TokenOn: "on", TokenBy: "by",
	TokenAsc: "asc", TokenDesc: "desc", TokenAs: "as", TokenIn: "in",
	TokenInt: "INT", TokenFloat: "FLOAT", TokenString: "STRING",
	TokenIdent: "IDENT", TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // byte offset in original input
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

var keywords = map[string]TokenType{
	"and":    TokenAnd,
	"or":     TokenOr,
	"not":    TokenNot,
	"true":   TokenTrue,
	"false":  TokenFalse,
	"null":   TokenNull,
	"let":    TokenLet,
	"exists": TokenExists,
	"on":     TokenOn,
	"by":     TokenBy,
	"asc":    TokenAsc,
	"desc":   TokenDesc,
	"as":     TokenAs,
	"in":     TokenIn,
}

// Lex tokenizes the input string into a slice of Tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		// Skip whitespace
		if unicode.IsSpace(ch) {
			i++
			continue
		}

		pos := i
		switch ch {
		case '|':
			tokens = append(tokens, Token{TokenPipe, "|", pos})
			i++
			continue
		case '{':
			tokens = append(tokens, Token{TokenLBrace, "{", pos})
			i++
			continue
		case '}':
			tokens = append(tokens, Token{TokenRBrace, "}", pos})
			i++
			continue
		case '(':
			tokens = append(tokens, Token{TokenLParen, "(", pos})
			i++
			continue
		case ')':
			tokens = append(tokens, Token{TokenRParen, ")", pos})
			i++
			continue
		case '[':
			tokens = append(tokens, Token{TokenLBracket, "[", pos})
			i++
			continue
		case ']':
			tokens = append(tokens, Token{TokenRBracket, "]", pos})
			i++
			continue
		case ',':
			tokens = append(tokens, Token{TokenComma, ",", pos})
			i++
			continue
		case '.':
			tokens = append(tokens, Token{TokenDot, ".", pos})
			i++
			continue
		case ';':
			tokens = append(tokens, Token{TokenSemi, ";", pos})
			i++
			continue
		case '@':
			tokens = append(tokens, Token{TokenAt, "@", pos})
			i++
			continue
		case '*':
			tokens = append(tokens, Token{TokenStar, "*", pos})
			i++
			continue
		case '~':
			tokens = append(tokens, Token{TokenTilde, "~", pos})
			i++
			continue
		case '/':
			// // comment runs to end of line
			if i+1 < len(runes) && runes[i+1] == '/' {
				for i < len(runes) && runes[i] != '\n' {
					i++
				}
				continue
			}
			return nil, fmt.Errorf("unexpected character '/' at position %d", pos)
		case '-':
			if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				tok, newI, err := lexNumber(runes, i)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
				i = newI
				continue
			}
			return nil, fmt.Errorf("unexpected character '-' at position %d", pos)
		case '=':
			switch {
			case i+1 < len(runes) && runes[i+1] == '=':
				tokens = append(tokens, Token{TokenEq, "==", pos})
				i += 2
			case i+1 < len(runes) && runes[i+1] == '~':
				tokens = append(tokens, Token{TokenLike, "=~", pos})
				i += 2
			case i+1 < len(runes) && runes[i+1] == '>':
				tokens = append(tokens, Token{TokenArrow, "=>", pos})
				i += 2
			default:
				tokens = append(tokens, Token{TokenEquals, "=", pos})
				i++
			}
			continue
		case '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenNeq, "!=", pos})
				i += 2
				continue
			}
			return nil, fmt.Errorf("unexpected character '!' at position %d (did you mean '!='?)", pos)
		case '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenLte, "<=", pos})
				i += 2
			} else {
				tokens = append(tokens, Token{TokenLt, "<", pos})
				i++
			}
			continue
		case '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenGte, ">=", pos})
				i += 2
			} else {
				tokens = append(tokens, Token{TokenGt, ">", pos})
				i++
			}
			continue
		case '"':
			tok, newI, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		if unicode.IsDigit(ch) {
			tok, newI, err := lexNumber(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		if unicode.IsLetter(ch) || ch == '_' {
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			word := string(runes[start:i])
			if tt, ok := keywords[word]; ok {
				tokens = append(tokens, Token{tt, word, start})
			} else {
				tokens = append(tokens, Token{TokenIdent, word, start})
			}
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", ch, pos)
	}

	tokens = append(tokens, Token{TokenEOF, "", len(runes)})
	return tokens, nil
}

func lexNumber(runes []rune, start int) (Token, int, error) {
	i := start
	if runes[i] == '-' {
		i++
	}
	sawDot := false
	for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
		if runes[i] == '.' {
			// a second dot belongs to the next token
			if sawDot || i+1 >= len(runes) || !unicode.IsDigit(runes[i+1]) {
				break
			}
			sawDot = true
		}
		i++
	}
	val := string(runes[start:i])
	if sawDot {
		return Token{TokenFloat, val, start}, i, nil
	}
	return Token{TokenInt, val, start}, i, nil
}

func lexString(runes []rune, start int) (Token, int, error) {
	i := start + 1
	var out []rune
	for i < len(runes) {
		switch runes[i] {
		case '\\':
			if i+1 >= len(runes) {
				return Token{}, 0, fmt.Errorf("unterminated escape at position %d", i)
			}
			switch runes[i+1] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				return Token{}, 0, fmt.Errorf("unknown escape '\\%c' at position %d", runes[i+1], i)
			}
			i += 2
		case '"':
			return Token{TokenString, string(out), start}, i + 1, nil
		default:
			out = append(out, runes[i])
			i++
		}
	}
	return Token{}, 0, fmt.Errorf("unterminated string starting at position %d", start)
}
