package confusable

// Table maps a lowercase character to the characters it is commonly confused with
type Table map[rune][]rune

// GetConfusableTable returns a fresh copy of the built-in substitutions
func GetConfusableTable() Table {
	return Table{
		'a': {'e'},
		'e': {'a'},
		'w': {'v'},
		'l': {'i', '1', 't'},
		'n': {'m'},
		'm': {'n'},
		'i': {'l', '1', 't'},
	}
}

// Class returns c followed by its confusables.
// A character without entry maps only to itself.
func (t Table) Class(c rune) []rune {
	return append([]rune{c}, t[c]...)
}
