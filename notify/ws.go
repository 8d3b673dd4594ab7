package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/middleware"
	"wanderlist/search"
	"wanderlist/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type inboundPayload struct {
	Action string `json:"action"`
	Term   string `json:"term,omitempty"`
	Key    string `json:"key,omitempty"`
	Index  int    `json:"index,omitempty"`
}

type outboundPayload struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Options configure WebSocketHandler. Suggest may be nil, which disables
// search messages.
type Options struct {
	Verifier middleware.TokenVerifier
	Suggest  search.SuggestFunc
	Debounce time.Duration
}

// WebSocketHandler serves GET /ws. A token may come from the "token" query
// parameter or the Authorization header; without one the connection is
// anonymous and receives search output only.
func WebSocketHandler(hub *Hub, opts Options) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var userID string
		token := r.URL.Query().Get("token")
		if token == "" {
			token = middleware.BearerToken(r)
		}
		if token != "" {
			claims, err := opts.Verifier.Verify(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			userID = claims.UserID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade")
			return
		}

		c := &Client{Send: make(chan []byte, sendBuffer), Room: userID}
		if !hub.Register(c) {
			conn.Close()
			return
		}
		go writePump(conn, c)
		go readPump(conn, c, hub, opts)
	}
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, c *Client, hub *Hub, opts Options) {
	ctx, cancel := context.WithCancel(context.Background())
	var session *search.Session
	if opts.Suggest != nil {
		session = search.NewSession(ctx, opts.Suggest, opts.Debounce, func(s search.Snapshot) {
			send(hub, c, "search.state", s)
		})
	}
	defer func() {
		if session != nil {
			session.Close()
		}
		cancel()
		hub.Unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("user", c.Room).Msg("websocket closed")
			}
			return
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Debug().Err(err).Msg("invalid websocket payload")
			continue
		}
		if session == nil {
			continue
		}

		switch in.Action {
		case "search.term":
			session.SetTerm(in.Term)
		case "search.key":
			if act := session.Key(search.Key(in.Key)); act.Kind != search.ActionNone {
				send(hub, c, "search.action", act)
			}
		case "search.select":
			if act := session.Select(in.Index); act.Kind != search.ActionNone {
				send(hub, c, "search.action", act)
			}
		case "search.clear":
			session.Clear()
		default:
			log.Debug().Str("action", in.Action).Msg("unknown websocket action")
		}
	}
}

func send(hub *Hub, c *Client, kind string, payload any) {
	data, err := json.Marshal(outboundPayload{Type: kind, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("type", kind).Msg("encode websocket message")
		return
	}
	hub.SendTo(c, data)
}
