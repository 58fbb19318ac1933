package ledger

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// StartObjectWatcher runs the passive acquisition path: a standing websocket
// subscription on the claim-handler object that feeds every observed state
// into the coordinator. The initial notification fires on subscribe, so a
// fresh mount gets populated without an explicit read.
//
// The goroutine exits when ctx is cancelled and never touches the
// coordinator afterwards; a late notification from a torn-down view must
// no-op rather than mutate freed state.
func StartObjectWatcher(ctx context.Context, wsURL, objectID string, coord *Coordinator) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Printf("object watcher dial: %v", err)
		return
	}

	sub := rpcRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "ledger_subscribeObject",
		Params:  []any{objectID, map[string]any{"showContent": true}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		log.Printf("object watcher subscribe: %v", err)
		conn.Close()
		return
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		for {
			var note struct {
				Params struct {
					Result json.RawMessage `json:"result"`
				} `json:"params"`
				Result json.RawMessage `json:"result"`
			}
			if err := conn.ReadJSON(&note); err != nil {
				if ctx.Err() == nil {
					log.Printf("object watcher read: %v", err)
				}
				return
			}
			raw := note.Params.Result
			if raw == nil {
				raw = note.Result
			}
			if len(raw) == 0 {
				continue
			}

			var doc Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				log.Printf("object watcher decode: %v", err)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			coord.ApplyPassive(doc)
		}
	}()
}
