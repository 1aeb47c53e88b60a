package handlers

import "time"

func (h *WSHandler) SetKeepalive(pongWait, pingPeriod time.Duration) {
	h.pongWait = pongWait
	h.pingPeriod = pingPeriod
}
