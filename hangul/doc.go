// Package hangul provides jamo decomposition and jamo-level similarity
// scoring for Korean text.
//
// Comparing decomposed sequences instead of whole syllables lets near
// misspellings score close together: 삼성 and 섬성 differ by one vowel, so
// their distance is 1 rather than a full syllable substitution.
//
// All functions are pure and safe for concurrent use.
package hangul
