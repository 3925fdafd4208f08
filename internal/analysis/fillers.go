package analysis

// Single-word fillers only; multi-word phrases are not matched by the
// current counting logic.
var fillerWords = map[string]struct{}{
	"uh": {}, "um": {}, "er": {}, "ah": {}, "hmm": {}, "so": {}, "well": {},
	"right": {}, "literally": {}, "okay": {}, "anyway": {}, "see": {},
	"just": {}, "really": {}, "like": {}, "actually": {}, "basically": {},
	"mean": {}, "guess": {}, "suppose": {}, "think": {}, "honest": {},
	"totally": {}, "simply": {}, "personally": {}, "seriously": {},
	"truly": {}, "virtually": {}, "apparently": {},
}

// IsFiller reports whether word (lowercase) is a known filler word.
func IsFiller(word string) bool {
	_, ok := fillerWords[word]
	return ok
}
