package notify

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"wanderlist/events"
)

// Forward relays user-scoped bus events to that user's connections and
// returns the unsubscribe function.
func Forward(bus *events.Bus, hub *Hub) func() {
	return bus.Subscribe(func(e events.Event) {
		if e.UserID == "" {
			return
		}
		data, err := json.Marshal(e)
		if err != nil {
			log.Error().Err(err).Str("kind", string(e.Kind)).Msg("encode event")
			return
		}
		hub.Broadcast(e.UserID, data)
	})
}
