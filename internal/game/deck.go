// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

// BuildDeck produces the full, unshuffled card sequence for a variant.
// Standard Kaboom values: A=1, number cards face value, J/Q/K=10, and
// the two red kings worth 0. The jokers variant adds two jokers worth 0.
func BuildDeck(variant string) []*models.Card {
	suits := []string{"H", "D", "C", "S"}
	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
	values := map[string]int{
		"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8,
		"9": 9, "T": 10, "J": 10, "Q": 10, "K": 10,
	}

	var deck []*models.Card
	for _, suit := range suits {
		for _, rank := range ranks {
			val := values[rank]
			if rank == "K" && (suit == "H" || suit == "D") {
				val = 0
			}
			cid, _ := uuid.NewRandom()
			deck = append(deck, &models.Card{ID: cid, Suit: suit, Rank: rank, Value: val})
		}
	}
	if variant == models.VariantJokers {
		// Rank "O" avoids colliding with Jack.
		for _, suit := range []string{"R", "B"} {
			cid, _ := uuid.NewRandom()
			deck = append(deck, &models.Card{ID: cid, Suit: suit, Rank: "O", Value: 0})
		}
	}
	return deck
}

// shuffleCards permutes cards in place, deterministically for a given
// seed so a stored room replays identically.
func shuffleCards(cards []*models.Card, seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// drawTop removes and returns the top card of the deck. When the deck
// is empty it reshuffles every discard card but the top one back into
// the deck first; that is the only recovery path. With fewer than two
// discards there is nothing to recover from and the room is broken.
func (r *Room) drawTop() (*models.Card, error) {
	if len(r.Deck) == 0 {
		if len(r.DiscardPile) < 2 {
			return nil, fmt.Errorf("%w: deck empty and discard pile has %d card(s)", ErrInvariant, len(r.DiscardPile))
		}
		top := r.DiscardPile[len(r.DiscardPile)-1]
		r.Deck = append(r.Deck, r.DiscardPile[:len(r.DiscardPile)-1]...)
		r.DiscardPile = []*models.Card{top}
		shuffleCards(r.Deck, r.ShuffleSeed+int64(r.Version))
		r.Reshuffles++
	}
	card := r.Deck[0]
	r.Deck = r.Deck[1:]
	return card, nil
}

// discard pushes a card onto the discard pile; top is the most recent.
func (r *Room) discard(c *models.Card) {
	r.DiscardPile = append(r.DiscardPile, c)
}

// PeekTopDiscard returns the top of the discard pile without mutating,
// or nil when the pile is empty.
func (r *Room) PeekTopDiscard() *models.Card {
	if len(r.DiscardPile) == 0 {
		return nil
	}
	return r.DiscardPile[len(r.DiscardPile)-1]
}
