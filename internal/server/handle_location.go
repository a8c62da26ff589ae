package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/streettag/api/internal/streettag"
)

type LocationTick struct {
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	Timestamp      time.Time `json:"timestamp"`
}

func (t LocationTick) fix() streettag.Fix {
	at := t.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return streettag.Fix{
		LatLng:         streettag.LatLng{Lat: t.Lat, Lng: t.Lng},
		AccuracyMeters: t.AccuracyMeters,
		At:             at,
	}
}

func handleLocationTick(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		var tick LocationTick
		if err := readJSON(r, &tick); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		events, err := sess.RecordLocation(sessionFrom(r).UserID, tick.fix())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleLocationStream accepts a WebSocket over which the client
// pushes location ticks at its GPS interval. Each rejected fix gets a
// per-tick error frame back; the stream itself stays up.
func handleLocationStream(d *Deps) http.HandlerFunc {
	type ack struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		Code  string `json:"code,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		ps := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			d.Logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 4*time.Hour)
		defer cancel()

		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				d.Logger.Debug("location stream ended", "player", ps.UserID, "error", err)
				return
			}

			var tick LocationTick
			if err := json.Unmarshal(msg, &tick); err != nil {
				writeWS(ctx, conn, ack{Error: "invalid tick", Code: string(streettag.CodeInvalidInput)})
				continue
			}

			events, err := sess.RecordLocation(ps.UserID, tick.fix())
			d.afterEvents(ctx, sess, events)
			if err != nil {
				writeWS(ctx, conn, ack{Error: err.Error(), Code: string(streettag.CodeOf(err))})
				continue
			}
			writeWS(ctx, conn, ack{OK: true})
		}
	}
}

func writeWS(ctx context.Context, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	conn.Write(ctx, websocket.MessageText, data)
}
