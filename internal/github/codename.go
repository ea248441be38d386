package github

import (
	"math/rand/v2"
	"strings"
)

var (
	adjectives = []string{
		"Agile", "Amber", "Bold", "Brave", "Calm", "Clever", "Daring", "Dapper",
		"Eager", "Elegant", "Fearless", "Fuzzy", "Gentle", "Golden", "Happy", "Hasty",
		"Jolly", "Jazzy", "Keen", "Kind", "Lively", "Lucky", "Merry", "Mighty",
		"Nimble", "Noble", "Plucky", "Proud", "Quick", "Quiet", "Rapid", "Royal",
		"Sly", "Swift", "Tidy", "Tough", "Witty", "Wise", "Zany", "Zesty",
	}
	animals = []string{
		"Alpaca", "Antelope", "Badger", "Bison", "Camel", "Cheetah", "Dingo", "Dolphin",
		"Eagle", "Eel", "Falcon", "Ferret", "Gazelle", "Gecko", "Heron", "Hedgehog",
		"Jackal", "Jaguar", "Kangaroo", "Koala", "Lemur", "Lynx", "Marmot", "Moose",
		"Narwhal", "Newt", "Panda", "Puffin", "Quail", "Quokka", "Raven", "Reindeer",
		"Salmon", "Sparrow", "Tapir", "Toucan", "Walrus", "Wombat", "Zebra", "Zebu",
	}
)

// Codenames hands out unique alliterative "Adjective Animal" names used
// as milestone descriptions.
type Codenames struct {
	rng  *rand.Rand
	used map[string]bool
}

// NewCodenames creates a generator. A nil rng uses a random seed.
func NewCodenames(rng *rand.Rand) *Codenames {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Codenames{rng: rng, used: map[string]bool{}}
}

// Next returns a codename that has not been returned before. Once every
// alliterative pair is used, names fall back to a numeric suffix.
func (c *Codenames) Next() string {
	var pairs []string
	for _, adj := range adjectives {
		for _, animal := range animals {
			if adj[0] != animal[0] {
				continue
			}
			name := adj + " " + animal
			if !c.used[name] {
				pairs = append(pairs, name)
			}
		}
	}

	var name string
	if len(pairs) > 0 {
		name = pairs[c.rng.IntN(len(pairs))]
	} else {
		base := adjectives[c.rng.IntN(len(adjectives))] + " " + animals[c.rng.IntN(len(animals))]
		name = base
		for i := 2; c.used[name]; i++ {
			name = base + " " + strings.Repeat("I", i)
		}
	}
	c.used[name] = true
	return name
}
