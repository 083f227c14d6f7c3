package handlers

import (
	"log"
	"net/http"
	"robot-route-service/internal/api/dto"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultStreamPoll = 200 * time.Millisecond

	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// StreamHandler pushes a robot's event log over a websocket.
// Frames have the same shape as the read endpoint and only go out when new events exist.
type StreamHandler struct {
	Fleet Fleet
	Poll  time.Duration

	upgrader websocket.Upgrader
}

func NewStreamHandler(fleet Fleet, poll time.Duration) *StreamHandler {
	if poll <= 0 {
		poll = DefaultStreamPoll
	}
	return &StreamHandler{
		Fleet:    fleet,
		Poll:     poll,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *StreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	id, err := queryRobotID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Fleet.Robot(id); err != nil {
		writeDomainError(w, r, "stream robot", err)
		return
	}
	cursor := queryCursor(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream upgrade failed: robot_id=%d err=%v", id, err)
		return
	}
	defer conn.Close()

	log.Printf("stream opened: robot_id=%d since=%d", id, cursor)

	closed := make(chan struct{})
	go readPump(conn, closed)

	poll := time.NewTicker(h.Poll)
	defer poll.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		robot, err := h.Fleet.Robot(id)
		if err != nil {
			closeStream(conn, websocket.CloseNormalClosure, "robot deleted")
			log.Printf("stream closed: robot_id=%d reason=deleted", id)
			return
		}

		lastID, events := robot.MessagesSince(cursor)
		if len(events) > 0 {
			frame := dto.RobotReadResponse{
				RobotID:       id,
				Status:        dto.NewRobotStatus(robot.Snapshot()),
				LastMessageID: lastID,
				Messages:      dto.NewMessages(events),
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("stream write failed: robot_id=%d err=%v", id, err)
				return
			}
			cursor = lastID
		}

		select {
		case <-closed:
			log.Printf("stream closed: robot_id=%d reason=client", id)
			return
		case <-r.Context().Done():
			closeStream(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-poll.C:
		}
	}
}

// readPump drains client frames so pongs and close frames are handled; it closes done on error.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func closeStream(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}
