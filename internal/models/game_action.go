package models

// Action type strings accepted by the engine.
const (
	ActionStart        = "action_start"
	ActionPeek         = "action_peek"
	ActionPeekDone     = "action_peek_done"
	ActionDraw         = "action_draw"
	ActionSwap         = "action_swap"
	ActionDiscardDrawn = "action_discard_drawn"
	ActionReactMatch   = "action_react_match"
	ActionReactSteal   = "action_react_steal"
	ActionReactPass    = "action_react_pass"
	ActionKaboom       = "action_kaboom"
	ActionTick         = "action_tick"
)

// Action captures a player's intended move against a room snapshot.
type Action struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Int extracts an integer payload field. JSON numbers arrive as
// float64; raw ints are accepted for in-process use.
func (a Action) Int(key string) (int, bool) {
	v, ok := a.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// Slot extracts the hand-slot index from the payload.
func (a Action) Slot() (int, bool) {
	return a.Int("slot")
}
