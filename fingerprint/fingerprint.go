// Package fingerprint reduces chat text to the form used for matching
// advertising phrases and links.
//
// A fingerprint is computed by lowercasing the text, removing all whitespace,
// transliterating Cyrillic letters to Latin, and finally dropping everything
// that is not an ASCII letter. The order of the steps matters: transliteration
// happens before filtering so that "купи" and "kupi" produce the same result.
package fingerprint

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Of returns the fingerprint of s.
func Of(s string) string {
	s = cases.Lower(language.Und).String(s)
	s = strings.Map(dropSpace, s)
	s = Translit(s)
	return strings.Map(keepASCIILetter, s)
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}

func keepASCIILetter(r rune) rune {
	if 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' {
		return r
	}
	return -1
}

// Translit transliterates lowercase Cyrillic letters in s to Latin following
// GOST 7.79-2000 system B. Apostrophes and backticks that the system uses to
// mark hard and soft signs are omitted, since fingerprints drop them anyway.
// Runes without a mapping are copied unchanged.
func Translit(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r == 'ц' {
			// ц is "c" before the front vowels and й, "cz" otherwise.
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			switch next {
			case 'и', 'е', 'ы', 'й', 'і', 'є':
				b.WriteByte('c')
			default:
				b.WriteString("cz")
			}
			continue
		}
		if t, ok := cyrillic[r]; ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var cyrillic = map[rune]string{
	'а': "a",
	'б': "b",
	'в': "v",
	'г': "g",
	'д': "d",
	'е': "e",
	'ё': "yo",
	'ж': "zh",
	'з': "z",
	'и': "i",
	'й': "j",
	'к': "k",
	'л': "l",
	'м': "m",
	'н': "n",
	'о': "o",
	'п': "p",
	'р': "r",
	'с': "s",
	'т': "t",
	'у': "u",
	'ф': "f",
	'х': "x",
	'ч': "ch",
	'ш': "sh",
	'щ': "shh",
	'ъ': "",
	'ы': "y",
	'ь': "",
	'э': "e",
	'ю': "yu",
	'я': "ya",
	// Ukrainian and Belarusian.
	'і': "i",
	'ї': "yi",
	'є': "ye",
	'ґ': "g",
	'ў': "u",
}
