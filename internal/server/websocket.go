package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/logging"
)

var errUnknownMessage = errors.New("unknown message type")

// handleWS serves the extension message channel. Requests on one connection
// are answered in order; a bad message gets an error reply and the
// connection stays open.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	s.logger.Info("websocket connected", logging.Field{Key: "remote", Value: r.RemoteAddr})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", logging.Field{Key: "error", Value: err.Error()})
			}
			return
		}

		var req WSRequest
		var resp WSResponse
		if err := json.Unmarshal(data, &req); err != nil {
			resp = WSResponse{Error: "invalid JSON"}
		} else {
			resp = s.dispatch(ctx, req)
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("websocket write", logging.Field{Key: "error", Value: err.Error()})
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req WSRequest) WSResponse {
	resp := WSResponse{ID: req.ID, Type: req.Type}

	var (
		result any
		err    error
	)
	switch req.Type {
	case MsgCheckPhishing:
		r := s.service.CheckURL(ctx, assessor.RiskInput{URL: req.URL, PageSignals: req.PageSignals})
		s.metrics.observeCheck(r)
		result = r
	case MsgGetNetworkInfo:
		result, err = s.service.NetworkInfo(ctx)
		s.metrics.observeNetInfo(err)
	case MsgGetPageInfo:
		result, err = s.service.AnalyzePage(ctx, req.URL)
	default:
		err = fmt.Errorf("%w: %q", errUnknownMessage, req.Type)
	}

	if err != nil {
		s.logger.Warn("websocket request failed",
			logging.Field{Key: "type", Value: req.Type},
			logging.Field{Key: "error", Value: err.Error()})
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}
