package models

import "fmt"

// Deck variants.
const (
	VariantStandard = "standard" // 52 cards, red kings worth 0
	VariantJokers   = "jokers"   // standard plus two jokers worth 0
)

// Reaction match policies.
const (
	MatchFirst = "first" // only the first valid match consumes the window
	MatchMulti = "multi" // every holder of the rank may shed one card
)

// RoomConfig captures the game-time configuration fixed at room
// creation: seat count, deck variant, peek budget, reaction window
// length, and the kaboom tie/penalty house rules.
type RoomConfig struct {
	PlayerCount      int    `json:"playerCount"`
	Variant          string `json:"variant"`
	HandSize         int    `json:"handSize"`
	PeekBudget       int    `json:"peekBudget"`
	ReactionWindowMs int    `json:"reactionWindowMs"`
	MatchPolicy      string `json:"matchPolicy"`

	// AllowSteal permits discarding an opponent's matching card during a
	// reaction window in exchange for one of the reactor's own cards.
	AllowSteal bool `json:"allowSteal"`

	TieGoesToCaller bool `json:"tieGoesToCaller"`
	CallerPenalty   int  `json:"callerPenalty"`

	// PasscodeHash, when set, is the argon2id hash a joiner's passcode
	// must verify against. The passcode itself is never stored.
	PasscodeHash string `json:"passcodeHash,omitempty"`
}

// DefaultRoomConfig returns the standard Kaboom setup: 4-card hands,
// two peeks, a 15 second reaction window, first-match-wins, and ties
// going to the caller.
func DefaultRoomConfig(playerCount int) RoomConfig {
	return RoomConfig{
		PlayerCount:      playerCount,
		Variant:          VariantStandard,
		HandSize:         4,
		PeekBudget:       2,
		ReactionWindowMs: 15000,
		MatchPolicy:      MatchFirst,
		AllowSteal:       true,
		TieGoesToCaller:  true,
		CallerPenalty:    10,
	}
}

// Validate checks the configuration is playable.
func (c RoomConfig) Validate() error {
	if c.PlayerCount < 2 {
		return fmt.Errorf("playerCount must be at least 2, got %d", c.PlayerCount)
	}
	if c.Variant != VariantStandard && c.Variant != VariantJokers {
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if c.HandSize < 1 {
		return fmt.Errorf("handSize must be positive, got %d", c.HandSize)
	}
	if c.PeekBudget < 0 {
		return fmt.Errorf("peekBudget must be non-negative, got %d", c.PeekBudget)
	}
	if c.ReactionWindowMs <= 0 {
		return fmt.Errorf("reactionWindowMs must be positive, got %d", c.ReactionWindowMs)
	}
	if c.MatchPolicy != MatchFirst && c.MatchPolicy != MatchMulti {
		return fmt.Errorf("unknown matchPolicy %q", c.MatchPolicy)
	}
	if c.CallerPenalty < 0 {
		return fmt.Errorf("callerPenalty must be non-negative, got %d", c.CallerPenalty)
	}
	return nil
}

// Update overlays values from a client-supplied map onto the config.
// Absent or nil keys keep their current value.
func (c *RoomConfig) Update(raw map[string]interface{}) error {
	assignInt := func(field *int, key string) error {
		if val, exists := raw[key]; exists && val != nil {
			switch n := val.(type) {
			case float64:
				*field = int(n)
			case int:
				*field = n
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}
	assignString := func(field *string, key string) error {
		if val, exists := raw[key]; exists && val != nil {
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = s
		}
		return nil
	}
	assignBool := func(field *bool, key string) error {
		if val, exists := raw[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	if err := assignInt(&c.PlayerCount, "playerCount"); err != nil {
		return err
	}
	if err := assignString(&c.Variant, "variant"); err != nil {
		return err
	}
	if err := assignInt(&c.HandSize, "handSize"); err != nil {
		return err
	}
	if err := assignInt(&c.PeekBudget, "peekBudget"); err != nil {
		return err
	}
	if err := assignInt(&c.ReactionWindowMs, "reactionWindowMs"); err != nil {
		return err
	}
	if err := assignString(&c.MatchPolicy, "matchPolicy"); err != nil {
		return err
	}
	if err := assignBool(&c.AllowSteal, "allowSteal"); err != nil {
		return err
	}
	if err := assignBool(&c.TieGoesToCaller, "tieGoesToCaller"); err != nil {
		return err
	}
	if err := assignInt(&c.CallerPenalty, "callerPenalty"); err != nil {
		return err
	}
	return c.Validate()
}
