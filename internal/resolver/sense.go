package resolver

// Sense distinguishes the vocabulary senses of the reserved preposition
// "z", which governs either the instrumental case ("with") or the
// genitive case ("from"). The two senses have very different reference
// frequencies and are tracked as separate vocabulary items.
type Sense int

const (
	SensePlain Sense = iota
	SenseInstrumental
	SenseGenitive
)

// Lemma is a resolved canonical headword. Sense is SensePlain for all
// words except the reserved disambiguation token.
type Lemma struct {
	Text  string
	Sense Sense
}

// Key returns the display key under which the lemma is counted and
// ranked. Sense variants get a distinguishing suffix so they aggregate
// separately.
func (l Lemma) Key() string {
	switch l.Sense {
	case SenseInstrumental:
		return l.Text + " (instr.)"
	case SenseGenitive:
		return l.Text + " (gen.)"
	default:
		return l.Text
	}
}

// BaseForm strips the sense suffix from a lemma key, recovering the
// bare headword for reference-frequency lookups.
func BaseForm(key string) string {
	for _, suffix := range []string{" (instr.)", " (gen.)"} {
		if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
			return key[:len(key)-len(suffix)]
		}
	}
	return key
}
