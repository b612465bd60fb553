// internal/game/deck_test.go
package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

func TestBuildDeckStandard(t *testing.T) {
	deck := BuildDeck(models.VariantStandard)
	require.Len(t, deck, 52)

	zeros := 0
	for _, c := range deck {
		if c.Value == 0 {
			zeros++
			assert.Equal(t, "K", c.Rank)
			assert.Contains(t, []string{"H", "D"}, c.Suit)
		}
	}
	assert.Equal(t, 2, zeros, "only the two red kings are worth 0")

	for _, c := range deck {
		switch c.Rank {
		case "J", "Q":
			assert.Equal(t, 10, c.Value)
		case "A":
			assert.Equal(t, 1, c.Value)
		}
	}
}

func TestBuildDeckJokers(t *testing.T) {
	deck := BuildDeck(models.VariantJokers)
	require.Len(t, deck, 54)

	jokers := 0
	for _, c := range deck {
		if c.Rank == "O" {
			jokers++
			assert.Equal(t, 0, c.Value)
		}
	}
	assert.Equal(t, 2, jokers)
}

func TestShuffleIsDeterministic(t *testing.T) {
	deck := BuildDeck(models.VariantStandard)
	a := append([]*models.Card(nil), deck...)
	b := append([]*models.Card(nil), deck...)

	shuffleCards(a, 42)
	shuffleCards(b, 42)
	for i := range a {
		require.Same(t, a[i], b[i], "same seed must produce the same order")
	}

	c := append([]*models.Card(nil), deck...)
	shuffleCards(c, 43)
	diff := 0
	for i := range a {
		if a[i] != c[i] {
			diff++
		}
	}
	assert.Greater(t, diff, 0, "different seeds should disagree somewhere")
}

func TestDrawTopReshufflesDiscard(t *testing.T) {
	cfg := models.DefaultRoomConfig(2)
	r, err := NewRoom("test", cfg, 7, time.Now())
	require.NoError(t, err)

	// Move everything to the discard pile and empty the deck.
	r.DiscardPile = r.Deck
	r.Deck = nil
	top := r.PeekTopDiscard()

	card, err := r.drawTop()
	require.NoError(t, err)
	require.NotNil(t, card)

	assert.Equal(t, 1, r.Reshuffles)
	assert.Equal(t, []*models.Card{top}, r.DiscardPile, "old top stays on the pile")
	assert.NotSame(t, top, card, "the preserved top card is not drawable")
	assert.Equal(t, 51, r.CardCount(), "everything but the drawn card stays tracked")
	assert.Equal(t, 50, len(r.Deck))
}

func TestDrawTopFailsWhenNothingToReshuffle(t *testing.T) {
	cfg := models.DefaultRoomConfig(2)
	r, err := NewRoom("test", cfg, 7, time.Now())
	require.NoError(t, err)

	r.DiscardPile = r.Deck[:1]
	r.Deck = nil

	_, err = r.drawTop()
	require.ErrorIs(t, err, ErrInvariant)
}

func testCard(rank string, value int) *models.Card {
	return &models.Card{ID: uuid.New(), Suit: "S", Rank: rank, Value: value}
}
