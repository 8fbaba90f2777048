package ignore

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenAnyCharacter
	tokenAnySequence
	tokenCharacterClass
)

type runeRange struct {
	low  rune
	high rune
}

type token struct {
	kind    tokenKind
	literal rune
	ranges  []runeRange
	negated bool
}

func (current token) matches(candidate rune) bool {
	switch current.kind {
	case tokenLiteral:
		return current.literal == candidate
	case tokenAnyCharacter:
		return true
	case tokenCharacterClass:
		for _, allowedRange := range current.ranges {
			if allowedRange.low <= candidate && candidate <= allowedRange.high {
				return !current.negated
			}
		}
		return current.negated
	default:
		return false
	}
}

// glob is a compiled shell-style pattern.
type glob struct {
	source string
	tokens []token
}

// compileGlob parses pattern. An unterminated "[" is taken literally, so
// compilation never fails.
func compileGlob(pattern string) glob {
	patternRunes := []rune(pattern)
	var tokens []token
	for index := 0; index < len(patternRunes); index++ {
		switch patternRunes[index] {
		case '*':
			if len(tokens) > 0 && tokens[len(tokens)-1].kind == tokenAnySequence {
				continue
			}
			tokens = append(tokens, token{kind: tokenAnySequence})
		case '?':
			tokens = append(tokens, token{kind: tokenAnyCharacter})
		case '[':
			classToken, classEnd, isClass := parseCharacterClass(patternRunes, index)
			if !isClass {
				tokens = append(tokens, token{kind: tokenLiteral, literal: '['})
				continue
			}
			tokens = append(tokens, classToken)
			index = classEnd
		default:
			tokens = append(tokens, token{kind: tokenLiteral, literal: patternRunes[index]})
		}
	}
	return glob{source: pattern, tokens: tokens}
}

// parseCharacterClass reads a bracket expression starting at openIndex and
// returns the token and the index of its closing bracket. A "]" directly
// after "[" or "[!" belongs to the set.
func parseCharacterClass(patternRunes []rune, openIndex int) (token, int, bool) {
	closeIndex := openIndex + 1
	if closeIndex < len(patternRunes) && patternRunes[closeIndex] == '!' {
		closeIndex++
	}
	if closeIndex < len(patternRunes) && patternRunes[closeIndex] == ']' {
		closeIndex++
	}
	for closeIndex < len(patternRunes) && patternRunes[closeIndex] != ']' {
		closeIndex++
	}
	if closeIndex >= len(patternRunes) {
		return token{}, openIndex, false
	}

	members := patternRunes[openIndex+1 : closeIndex]
	classToken := token{kind: tokenCharacterClass}
	if len(members) > 0 && members[0] == '!' {
		classToken.negated = true
		members = members[1:]
	}
	for memberIndex := 0; memberIndex < len(members); {
		if memberIndex+2 < len(members) && members[memberIndex+1] == '-' {
			low, high := members[memberIndex], members[memberIndex+2]
			if low <= high {
				classToken.ranges = append(classToken.ranges, runeRange{low: low, high: high})
			}
			memberIndex += 3
			continue
		}
		member := members[memberIndex]
		classToken.ranges = append(classToken.ranges, runeRange{low: member, high: member})
		memberIndex++
	}
	return classToken, closeIndex, true
}

// match reports whether the whole name matches the compiled pattern.
// On mismatch only the most recent "*" is extended.
func (compiled glob) match(name string) bool {
	nameRunes := []rune(name)
	tokenIndex, nameIndex := 0, 0
	starTokenIndex, starNameIndex := -1, 0

	for nameIndex < len(nameRunes) {
		if tokenIndex < len(compiled.tokens) {
			current := compiled.tokens[tokenIndex]
			if current.kind == tokenAnySequence {
				starTokenIndex = tokenIndex
				starNameIndex = nameIndex
				tokenIndex++
				continue
			}
			if current.matches(nameRunes[nameIndex]) {
				tokenIndex++
				nameIndex++
				continue
			}
		}
		if starTokenIndex < 0 {
			return false
		}
		starNameIndex++
		nameIndex = starNameIndex
		tokenIndex = starTokenIndex + 1
	}

	for tokenIndex < len(compiled.tokens) && compiled.tokens[tokenIndex].kind == tokenAnySequence {
		tokenIndex++
	}
	return tokenIndex == len(compiled.tokens)
}

// Match reports whether name matches the shell-style pattern. Unlike
// path.Match, "*" and "?" also match "/".
func Match(pattern, name string) bool {
	return compileGlob(pattern).match(name)
}
