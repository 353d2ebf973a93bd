/*
Package dictionary loads the bundled pinyin dictionary into an immutable Store.

A dictionary is an ordered list of entries, each mapping a pinyin spelling to
a Chinese word with a usage frequency. Pinyin of multi-character words keeps
its syllable boundaries as single spaces:

	{"Chinese": "西安", "Pinyin": "xi an", "Frequency": 812}

Order matters: the candidate matcher breaks frequency ties by the position an
entry had in its source file, so loaders never reorder entries.

Three source formats are understood, picked by file extension:

	.json          array of {"Chinese","Pinyin","Frequency"} objects
	.msgpack .mpk  msgpack array of {"t","p","f"} maps
	.txt .tsv      one "text<TAB>pinyin<TAB>frequency" line per entry

A failed load never takes the process down. Callers fall back to Empty()
and the matcher simply reports no candidates.
*/
package dictionary

import (
	"strings"
)

// Entry is a single pinyin -> text record.
type Entry struct {
	Text      string `json:"text" msgpack:"t"`
	Pinyin    string `json:"pinyin" msgpack:"p"`
	Frequency int    `json:"frequency" msgpack:"f"`
}

// jsonEntry accepts both the bundled dict.json keys and the lowercase Entry keys.
type jsonEntry struct {
	Chinese   string  `json:"Chinese"`
	Text      string  `json:"text"`
	Pinyin    string  `json:"Pinyin"`
	Frequency float64 `json:"Frequency"`
}

func (j jsonEntry) entry() Entry {
	text := j.Chinese
	if text == "" {
		text = j.Text
	}
	return Entry{Text: text, Pinyin: j.Pinyin, Frequency: int(j.Frequency)}
}

// clean trims the text and folds pinyin whitespace into single spaces.
// It reports false for entries that cannot be matched.
func (e Entry) clean() (Entry, bool) {
	e.Text = strings.TrimSpace(e.Text)
	e.Pinyin = strings.Join(strings.Fields(e.Pinyin), " ")
	if e.Text == "" || e.Pinyin == "" {
		return e, false
	}
	return e, true
}
