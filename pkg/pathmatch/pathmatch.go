// Package pathmatch implements find -path matching semantics.
//
// It follows fnmatch(3) without FNM_PATHNAME or FNM_PERIOD:
//   - * matches any run of characters, including /
//   - ? matches exactly one character, including /
//   - [...] matches one character from the set, including /. The set may hold
//     ranges (a-z), POSIX classes ([:digit:]) and is negated by a leading ! or ^
//   - \ escapes the next character
//
// This differs from Go's filepath.Match where * does not cross directory separators.
package pathmatch

import (
	"fmt"
	"strings"
	"unicode"
)

// Match reports whether path matches the pattern using find -path semantics.
func Match(pattern, path string) (bool, error) {
	p, err := Compile(pattern)
	if err != nil {
		return false, err
	}

	return p.Match(path), nil
}

// Matcher pre-compiles patterns for reuse across many paths.
type Matcher struct {
	patterns []*Pattern
}

// NewMatcher compiles the given patterns into a reusable matcher.
func NewMatcher(patterns []string) (*Matcher, error) {
	matcher := &Matcher{patterns: make([]*Pattern, 0, len(patterns))}

	for _, src := range patterns {
		p, err := Compile(src)
		if err != nil {
			return nil, err
		}

		matcher.patterns = append(matcher.patterns, p)
	}

	return matcher, nil
}

// MatchAny reports whether path matches any of the compiled patterns.
func (m *Matcher) MatchAny(path string) bool {
	for _, p := range m.patterns {
		if p.Match(path) {
			return true
		}
	}

	return false
}

// Len is the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

type tokenKind uint8

const (
	tokenLiteral tokenKind = iota
	tokenAny
	tokenStar
	tokenClass
)

type token struct {
	kind  tokenKind
	char  rune
	class *charClass
}

// Pattern is a compiled glob.
type Pattern struct {
	source string
	tokens []token
}

// Compile parses pattern. A trailing backslash and an unclosed [ are errors.
func Compile(pattern string) (*Pattern, error) {
	chars := []rune(pattern)

	p := &Pattern{source: pattern}

	for pos := 0; pos < len(chars); {
		switch chars[pos] {
		case '*':
			// Runs of stars behave like one.
			if n := len(p.tokens); n == 0 || p.tokens[n-1].kind != tokenStar {
				p.tokens = append(p.tokens, token{kind: tokenStar})
			}

			pos++
		case '?':
			p.tokens = append(p.tokens, token{kind: tokenAny})
			pos++
		case '[':
			class, next, err := parseClass(chars, pos)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}

			p.tokens = append(p.tokens, token{kind: tokenClass, class: class})
			pos = next
		case '\\':
			if pos+1 >= len(chars) {
				return nil, fmt.Errorf("pattern %q: trailing backslash", pattern)
			}

			p.tokens = append(p.tokens, token{kind: tokenLiteral, char: chars[pos+1]})
			pos += 2
		default:
			p.tokens = append(p.tokens, token{kind: tokenLiteral, char: chars[pos]})
			pos++
		}
	}

	return p, nil
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}

// Match reports whether the whole of path matches.
func (p *Pattern) Match(path string) bool {
	name := []rune(path)
	tokens := p.tokens

	ti, ni := 0, 0

	// Position of the last star and the name index it is currently absorbing up to.
	star, mark := -1, 0

	for ni < len(name) {
		if ti < len(tokens) {
			tok := tokens[ti]

			switch {
			case tok.kind == tokenStar:
				star, mark = ti, ni
				ti++

				continue
			case tok.kind == tokenAny,
				tok.kind == tokenLiteral && tok.char == name[ni],
				tok.kind == tokenClass && tok.class.matches(name[ni]):
				ti++
				ni++

				continue
			}
		}

		if star < 0 {
			return false
		}

		mark++
		ti, ni = star+1, mark
	}

	for ti < len(tokens) && tokens[ti].kind == tokenStar {
		ti++
	}

	return ti == len(tokens)
}

type runeRange struct{ lo, hi rune }

type charClass struct {
	negate bool
	ranges []runeRange
	named  []func(rune) bool
}

func (c *charClass) matches(r rune) bool {
	found := false

	for _, rr := range c.ranges {
		if rr.lo <= r && r <= rr.hi {
			found = true

			break
		}
	}

	for _, fn := range c.named {
		if found {
			break
		}

		found = fn(r)
	}

	return found != c.negate
}

var namedClasses = map[string]func(rune) bool{ //nolint:gochecknoglobals // lookup table
	"alnum":  func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) },
	"alpha":  unicode.IsLetter,
	"blank":  func(r rune) bool { return r == ' ' || r == '\t' },
	"cntrl":  unicode.IsControl,
	"digit":  func(r rune) bool { return '0' <= r && r <= '9' },
	"graph":  func(r rune) bool { return unicode.IsGraphic(r) && !unicode.IsSpace(r) },
	"lower":  unicode.IsLower,
	"print":  unicode.IsPrint,
	"punct":  unicode.IsPunct,
	"space":  unicode.IsSpace,
	"upper":  unicode.IsUpper,
	"xdigit": func(r rune) bool { return strings.ContainsRune("0123456789abcdefABCDEF", r) },
}

// parseClass parses the bracket expression starting at chars[pos] == '[' and
// returns the index just past its closing ].
func parseClass(chars []rune, pos int) (*charClass, int, error) {
	class := &charClass{}
	idx := pos + 1

	if idx < len(chars) && (chars[idx] == '!' || chars[idx] == '^') {
		class.negate = true
		idx++
	}

	// A ] right after the opening bracket is a literal.
	first := true

	for idx < len(chars) {
		c := chars[idx]

		if c == ']' && !first {
			return class, idx + 1, nil
		}

		first = false

		if c == '[' && idx+1 < len(chars) && chars[idx+1] == ':' {
			end := indexOf(chars, idx+2, ":]")
			if end < 0 {
				return nil, 0, fmt.Errorf("unclosed character class name at offset %d", idx)
			}

			name := string(chars[idx+2 : end])

			fn, ok := namedClasses[name]
			if !ok {
				return nil, 0, fmt.Errorf("unknown character class [:%s:]", name)
			}

			class.named = append(class.named, fn)
			idx = end + 2

			continue
		}

		if c == '\\' && idx+1 < len(chars) {
			idx++
			c = chars[idx]
		}

		lo := c
		idx++

		// A '-' before the closing ] is a literal.
		if idx+1 < len(chars) && chars[idx] == '-' && chars[idx+1] != ']' {
			hi := chars[idx+1]
			idx += 2

			if hi == '\\' && idx < len(chars) {
				hi = chars[idx]
				idx++
			}

			class.ranges = append(class.ranges, runeRange{lo: lo, hi: hi})

			continue
		}

		class.ranges = append(class.ranges, runeRange{lo: lo, hi: lo})
	}

	return nil, 0, fmt.Errorf("unclosed character class at offset %d", pos)
}

func indexOf(chars []rune, from int, sub string) int {
	target := []rune(sub)

	for i := from; i+len(target) <= len(chars); i++ {
		if string(chars[i:i+len(target)]) == sub {
			return i
		}
	}

	return -1
}
