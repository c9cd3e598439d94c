package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantlab/papertrade/market"
)

// wsTick is the wire format pushed by the quote server.
type wsTick struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"` // unix milliseconds
	Last   float64 `json:"last"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Volume int64   `json:"volume"`
}

// WSFeed streams ticks from a websocket quote server. It implements
// TickFeed for the paper-trading loop.
type WSFeed struct {
	conn *websocket.Conn
}

// DialWS connects to url and subscribes to the given symbols. Connection
// failures report ErrDataUnavailable.
func DialWS(url string, symbols []string) (*WSFeed, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, url, err)
	}
	sub := map[string]any{"op": "subscribe", "symbols": symbols}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe: %v", ErrDataUnavailable, err)
	}
	return &WSFeed{conn: conn}, nil
}

func (w *WSFeed) Next() (market.Tick, bool, error) {
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return market.Tick{}, false, nil
			}
			return market.Tick{}, false, err
		}
		var t wsTick
		if err := json.Unmarshal(msg, &t); err != nil {
			continue // server heartbeats and acks are not ticks
		}
		if t.Symbol == "" || t.Last <= 0 {
			continue
		}
		return market.Tick{
			Symbol: t.Symbol,
			Time:   time.UnixMilli(t.Time),
			Last:   t.Last,
			Bid:    t.Bid,
			Ask:    t.Ask,
			Volume: t.Volume,
		}, true, nil
	}
}

func (w *WSFeed) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return w.conn.Close()
}
