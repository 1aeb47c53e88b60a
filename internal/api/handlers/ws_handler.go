package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/sheetlens/internal/chart"
	"github.com/yoockh/sheetlens/internal/services"
	"github.com/yoockh/sheetlens/internal/utils"
)

const (
	defaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
)

type WSHandler struct {
	uploads  services.UploadService
	insights services.InsightService
	log      *logrus.Logger
	upgrader websocket.Upgrader

	// pingPeriod must stay below pongWait
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewWSHandler builds the insights socket handler. allowedOrigins empty means
// any origin is accepted.
func NewWSHandler(uploads services.UploadService, insights services.InsightService, log *logrus.Logger, allowedOrigins []string) *WSHandler {
	allow := map[string]struct{}{}
	for _, o := range allowedOrigins {
		allow[o] = struct{}{}
	}
	return &WSHandler{
		uploads:    uploads,
		insights:   insights,
		log:        log,
		pongWait:   defaultPongWait,
		pingPeriod: defaultPongWait * 9 / 10,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allow) == 0 {
					return true
				}
				_, ok := allow[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

type wsClientMsg struct {
	Type      string `json:"type"` // generate|replay
	XAxis     string `json:"x_axis"`
	YAxis     string `json:"y_axis"`
	ChartType string `json:"chart_type"`
	RunID     string `json:"run_id"`
}

type wsErrorMsg struct {
	Type    string     `json:"type"`
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	resp := utils.NewErrorResponse(err)
	return w.writeJSON(wsErrorMsg{Type: "error", Code: resp.Code, Message: resp.Error})
}

// InsightsWS streams AI insights for one upload.
func (h *WSHandler) InsightsWS(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	uploadID := c.Param("upload_id")

	// authorize before upgrading so failures are plain HTTP errors
	if _, err := h.uploads.Get(c.Request.Context(), caller, uploadID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.log.WithFields(logrus.Fields{"upload_id": uploadID, "user_id": caller.ID})

	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(h.pongWait)) }
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	go h.keepalive(ctx, conn)

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		extend()

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeError(utils.E(utils.CodeInvalidArgument, "WSHandler.InsightsWS", "invalid json", err))
			continue
		}

		switch msg.Type {
		case "generate":
			var sel *chart.Selection
			if msg.XAxis != "" || msg.YAxis != "" {
				sel = &chart.Selection{XAxis: msg.XAxis, YAxis: msg.YAxis, Type: chart.Type(msg.ChartType)}
			}

			a, err := h.insights.Generate(ctx, caller, uploadID, sel, func(e services.InsightEvent) error {
				return wc.writeJSON(e)
			})
			// pongs are only consumed by ReadMessage, so a long run may have
			// outlived the deadline
			extend()
			if err != nil {
				if utils.HTTPStatus(err) >= http.StatusInternalServerError {
					log.WithError(err).Error("insight generation failed")
				}
				if werr := wc.writeError(err); werr != nil {
					return
				}
				continue
			}

			if err := wc.writeJSON(services.InsightEvent{
				Type:       services.EventComplete,
				RunID:      a.ID,
				AnalysisID: a.ID,
				Insights:   a.Insights,
			}); err != nil {
				return
			}

		case "replay":
			chunks, err := h.insights.Replay(ctx, caller, msg.RunID)
			if err != nil {
				_ = wc.writeError(err)
				continue
			}
			for _, ch := range chunks {
				if err := wc.writeJSON(services.InsightEvent{
					Type:  services.EventChunk,
					RunID: ch.RunID,
					Seq:   ch.Seq,
					Chunk: ch.Text,
				}); err != nil {
					return
				}
			}

		default:
			_ = wc.writeError(utils.E(utils.CodeInvalidArgument, "WSHandler.InsightsWS", "unknown message type", nil))
		}
	}
}

// keepalive pings until ctx ends. WriteControl may run alongside the
// locked data writes.
func (h *WSHandler) keepalive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(h.pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
