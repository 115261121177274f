package hangul

// Precomposed syllable block boundaries and stride constants.
const (
	syllableBase  = 0xAC00
	syllableLast  = 0xD7A3
	medialCount   = 21
	finalCount    = 28
	initialStride = medialCount * finalCount // 588
)

var initials = [...]rune{
	'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ', 'ㅅ',
	'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

var medials = [...]rune{
	'ㅏ', 'ㅐ', 'ㅑ', 'ㅒ', 'ㅓ', 'ㅔ', 'ㅕ', 'ㅖ', 'ㅗ', 'ㅘ',
	'ㅙ', 'ㅚ', 'ㅛ', 'ㅜ', 'ㅝ', 'ㅞ', 'ㅟ', 'ㅠ', 'ㅡ', 'ㅢ',
	'ㅣ',
}

// finals[0] is the empty final and is never emitted.
var finals = [...]rune{
	0, 'ㄱ', 'ㄲ', 'ㄳ', 'ㄴ', 'ㄵ', 'ㄶ', 'ㄷ', 'ㄹ', 'ㄺ',
	'ㄻ', 'ㄼ', 'ㄽ', 'ㄾ', 'ㄿ', 'ㅀ', 'ㅁ', 'ㅂ', 'ㅄ', 'ㅅ',
	'ㅆ', 'ㅇ', 'ㅈ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

// IsSyllable reports whether r is a precomposed Hangul syllable.
func IsSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

// Decompose returns the jamo of a single rune.
//
// A precomposed syllable yields its initial consonant, medial vowel and, when
// present, final consonant. Any other rune is returned unchanged as a
// one-element slice.
func Decompose(r rune) []rune {
	return appendJamo(make([]rune, 0, 3), r)
}

// DecomposeString decomposes every rune of s and concatenates the results in
// order.
func DecomposeString(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = appendJamo(out, r)
	}
	return out
}

func appendJamo(dst []rune, r rune) []rune {
	if !IsSyllable(r) {
		return append(dst, r)
	}
	offset := int(r - syllableBase)
	dst = append(dst,
		initials[offset/initialStride],
		medials[(offset%initialStride)/finalCount],
	)
	if f := offset % finalCount; f != 0 {
		dst = append(dst, finals[f])
	}
	return dst
}
