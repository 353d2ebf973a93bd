// Package suggestion tracks the ordered set of AI suggestions for the
// current input: the primary conversion plus lazily generated colloquial and
// expanded variants of it, the selection cursor, and the committed output.
//
// A Controller is not safe for concurrent use. Generation results are applied
// through Fill with the generation id they were requested under; results for
// an older set are rejected with ErrStale.
package suggestion

import (
	"errors"
	"strings"
)

// Slot indexes a suggestion in the set.
type Slot int

const (
	Primary Slot = iota
	Colloquial
	Expanded
)

// SlotCount is the cycle period.
const SlotCount = 3

func (s Slot) String() string {
	switch s {
	case Primary:
		return "primary"
	case Colloquial:
		return "colloquial"
	case Expanded:
		return "expanded"
	}
	return "unknown"
}

// State is the materialization state of a slot.
type State int

const (
	Empty State = iota
	Pending
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	}
	return "empty"
}

var (
	ErrNothingSelected = errors.New("nothing selected")
	ErrStale           = errors.New("stale generation result")
	ErrUnchanged       = errors.New("generated text is identical to the primary")
	ErrInvalidSlot     = errors.New("invalid suggestion slot")
)

// Demand asks the caller to generate text for Slot from Source. The result
// goes back through Fill or Fail with the same Generation.
type Demand struct {
	Slot       Slot
	Source     string
	Generation uint64
}

// View is a read-only copy of one slot.
type View struct {
	Slot  Slot
	Text  string
	State State
}

// Controller owns the suggestion set.
type Controller struct {
	texts      [SlotCount]string
	states     [SlotCount]State
	selected   Slot
	generation uint64
	output     strings.Builder
}

// NewController returns a controller with an empty set.
func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) reset() {
	c.generation++
	c.texts = [SlotCount]string{}
	c.states = [SlotCount]State{}
	c.selected = Primary
}

// SetPrimary replaces the whole set with a new primary suggestion and
// returns the new generation id. An empty text just clears the set.
func (c *Controller) SetPrimary(text string) uint64 {
	c.reset()
	if text != "" {
		c.texts[Primary] = text
		c.states[Primary] = Ready
	}
	return c.generation
}

// ReplacePrimary overwrites the primary slot in place (a merged correction)
// and discards the derived slots so they regenerate from the new text.
func (c *Controller) ReplacePrimary(text string) uint64 {
	return c.SetPrimary(text)
}

// Clear empties the set.
func (c *Controller) Clear() {
	c.reset()
}

// Cycle advances the selection modulo SlotCount. When the new slot has not
// been generated and is not already being generated it is marked Pending and
// returned as a Demand. Without a primary suggestion Cycle does nothing.
func (c *Controller) Cycle() (Slot, *Demand) {
	if c.states[Primary] != Ready {
		return c.selected, nil
	}
	c.selected = (c.selected + 1) % SlotCount
	if c.states[c.selected] != Empty {
		return c.selected, nil
	}
	c.states[c.selected] = Pending
	return c.selected, &Demand{
		Slot:       c.selected,
		Source:     c.texts[Primary],
		Generation: c.generation,
	}
}

// Fill stores a generated text for slot. Expanded results are repaired to
// begin with the primary text first. A result equal to the primary counts
// as a failure: the slot goes back to Empty and ErrUnchanged is returned.
func (c *Controller) Fill(slot Slot, generation uint64, text string) error {
	if slot <= Primary || slot >= SlotCount {
		return ErrInvalidSlot
	}
	if generation != c.generation || c.states[slot] != Pending {
		return ErrStale
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.states[slot] = Empty
		return ErrUnchanged
	}
	if slot == Expanded {
		text = RepairContinuation(c.texts[Primary], text)
	}
	if text == c.texts[Primary] {
		c.states[slot] = Empty
		return ErrUnchanged
	}
	c.texts[slot] = text
	c.states[slot] = Ready
	return nil
}

// Fail releases a pending slot so cycling to it again retries.
func (c *Controller) Fail(slot Slot, generation uint64) error {
	if slot <= Primary || slot >= SlotCount {
		return ErrInvalidSlot
	}
	if generation != c.generation || c.states[slot] != Pending {
		return ErrStale
	}
	c.states[slot] = Empty
	return nil
}

// Confirm appends the selected text to the output and clears the set.
func (c *Controller) Confirm() (string, error) {
	if c.states[c.selected] != Ready {
		return "", ErrNothingSelected
	}
	text := c.texts[c.selected]
	c.output.WriteString(text)
	c.reset()
	return text, nil
}

// Selected returns the selection cursor.
func (c *Controller) Selected() Slot { return c.selected }

// Generation returns the id of the current set.
func (c *Controller) Generation() uint64 { return c.generation }

// Primary returns the primary text, or "" when there is none.
func (c *Controller) Primary() string { return c.texts[Primary] }

// Text returns the text in slot.
func (c *Controller) Text(slot Slot) string {
	if slot < Primary || slot >= SlotCount {
		return ""
	}
	return c.texts[slot]
}

// State returns the state of slot.
func (c *Controller) State(slot Slot) State {
	if slot < Primary || slot >= SlotCount {
		return Empty
	}
	return c.states[slot]
}

// Slots returns a copy of all slots in order.
func (c *Controller) Slots() []View {
	views := make([]View, SlotCount)
	for i := range views {
		views[i] = View{Slot: Slot(i), Text: c.texts[i], State: c.states[i]}
	}
	return views
}

// Output returns the committed text.
func (c *Controller) Output() string { return c.output.String() }

// ClearOutput empties the committed text.
func (c *Controller) ClearOutput() { c.output.Reset() }
