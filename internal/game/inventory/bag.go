package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
)

// ErrNotEnough is returned when removing more of an item than the bag holds.
var ErrNotEnough = errors.New("inventory: not enough of item")

// Stack is one item id and how many the bag holds.
type Stack struct {
	ItemID   int
	Quantity int
}

// Bag stores a trainer's items, money and the creatures caught during battle.
// It is safe for concurrent use.
type Bag struct {
	mu       sync.Mutex
	catalog  *Registry
	items    map[int]int
	money    int
	maxMoney int
	caught   []*creature.Instance
}

// NewBag creates an empty Bag. maxMoney <= 0 means no upper bound.
//
// Precondition: catalog must not be nil.
func NewBag(catalog *Registry, money, maxMoney int) *Bag {
	b := &Bag{catalog: catalog, items: make(map[int]int), maxMoney: maxMoney}
	b.money = b.clamp(money)
	return b
}

func (b *Bag) clamp(v int) int {
	if v < 0 {
		return 0
	}
	if b.maxMoney > 0 && v > b.maxMoney {
		return b.maxMoney
	}
	return v
}

// Catalog returns the item definitions the bag draws from.
func (b *Bag) Catalog() *Registry { return b.catalog }

// Add puts qty of item id into the bag.
//
// Precondition: qty > 0.
// Postcondition: returns an error and leaves the bag unchanged if id is unknown.
func (b *Bag) Add(id, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("inventory: quantity must be > 0, got %d", qty)
	}
	if _, ok := b.catalog.Item(id); !ok {
		return fmt.Errorf("inventory: unknown item %d", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[id] += qty
	return nil
}

// RemoveItem takes qty of item id out of the bag.
//
// Postcondition: on error the bag is unchanged.
func (b *Bag) RemoveItem(id, qty int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	have := b.items[id]
	if qty <= 0 || have < qty {
		return fmt.Errorf("%w: item %d, have %d, want %d", ErrNotEnough, id, have, qty)
	}
	if have == qty {
		delete(b.items, id)
	} else {
		b.items[id] = have - qty
	}
	return nil
}

// Quantity returns how many of item id the bag holds.
func (b *Bag) Quantity(id int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items[id]
}

// Stacks returns the non-empty stacks ordered by item id.
func (b *Bag) Stacks() []Stack {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Stack, 0, len(b.items))
	for id, q := range b.items {
		out = append(out, Stack{ItemID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Money returns the current balance.
func (b *Bag) Money() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.money
}

// AddMoney changes the balance by delta, clamped to [0, maxMoney], and returns
// the change actually applied.
//
// Postcondition: 0 <= Money() <= maxMoney when maxMoney > 0.
func (b *Bag) AddMoney(delta int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	before := b.money
	b.money = b.clamp(before + delta)
	return b.money - before
}

// AddCaughtCreature records a creature caught in battle.
func (b *Bag) AddCaughtCreature(in *creature.Instance) error {
	if in == nil {
		return errors.New("inventory: caught creature must not be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caught = append(b.caught, in)
	return nil
}

// Caught returns the creatures caught so far.
func (b *Bag) Caught() []*creature.Instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*creature.Instance(nil), b.caught...)
}

// HasCaughtSpecies reports whether a creature of species id has been caught.
func (b *Bag) HasCaughtSpecies(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.caught {
		if in.Species != nil && in.Species.ID == id {
			return true
		}
	}
	return false
}
