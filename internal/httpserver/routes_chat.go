// internal/httpserver/routes_chat.go
//
// Gateway routes under /v1:
//   - POST /v1/messages              → any channel message; replies only to commands/passive guesses
//   - POST /v1/commands/{name}       → run a command explicitly (start-challenge | guess | leaderboard | help)
//   - GET  /v1/leaderboard           → top players as JSON (?limit=, default 20)
//   - GET  /v1/channels/{channelID}  → the channel's challenge progress

package httpserver

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/ciyi/internal/command"
	"github.com/robalobadob/ciyi/internal/game"
)

// mountChat registers the gateway routes on r.
func (s *Server) mountChat(r chi.Router) {
	r.Post("/messages", s.handleMessage)
	r.Post("/commands/{name}", s.handleCommand)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/channels/{channelID}", s.handleChannel)
}

// replyRes wraps a reply for the gateway.
type replyRes struct {
	Handled  bool           `json:"handled"`
	Reply    *command.Reply `json:"reply,omitempty"`
	Rendered string         `json:"rendered,omitempty"`
}

func newReplyRes(r command.Reply) replyRes {
	return replyRes{Handled: true, Reply: &r, Rendered: r.Render()}
}

// -----------------------------------------------------------------------------
// /v1/messages

// handleMessage feeds one chat message to the dispatcher.
// Messages that are not for the bot come back with handled=false.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg command.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !s.admit(w, msg) {
		return
	}
	reply, handled := s.dispatch.Handle(r.Context(), msg)
	if !handled {
		_ = json.NewEncoder(w).Encode(replyRes{Handled: false})
		return
	}
	s.logReply(r, msg, reply)
	_ = json.NewEncoder(w).Encode(newReplyRes(reply))
}

// -----------------------------------------------------------------------------
// /v1/commands/{name}

// commandReq is the payload for POST /v1/commands/{name}.
type commandReq struct {
	Message command.Message `json:"message"`
	Args    []string        `json:"args"`
}

// handleCommand runs a named command regardless of the message text.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := command.Name(chi.URLParam(r, "name"))
	switch name {
	case command.Start, command.Guess, command.Leaderboard, command.Help:
	default:
		writeError(w, http.StatusNotFound, "unknown_command")
		return
	}

	var req commandReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !s.admit(w, req.Message) {
		return
	}
	reply := s.dispatch.Run(r.Context(), name, req.Message, req.Args)
	s.logReply(r, req.Message, reply)
	_ = json.NewEncoder(w).Encode(newReplyRes(reply))
}

// admit validates the sender fields and applies the channel rate limit.
func (s *Server) admit(w http.ResponseWriter, msg command.Message) bool {
	if msg.ChannelID == "" || msg.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing_channel_or_user")
		return false
	}
	if !s.limits.allow(msg.ChannelID) {
		writeError(w, http.StatusTooManyRequests, "rate_limited")
		return false
	}
	return true
}

func (s *Server) logReply(r *http.Request, msg command.Message, reply command.Reply) {
	log.Debug().
		Str("gateway", GatewayFrom(r.Context())).
		Str("channel", msg.ChannelID).
		Str("user", msg.UserID).
		Str("reply_id", reply.ID).
		Msg("reply")
}

// -----------------------------------------------------------------------------
// /v1/leaderboard

// lbRes is returned by /v1/leaderboard.
type lbRes struct {
	Top []game.Player `json:"top"`
}

// handleLeaderboard returns players by score, highest first.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}
	players, err := s.engine.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	slices.SortStableFunc(players, func(a, b game.Player) int { return cmp.Compare(b.Score, a.Score) })
	if len(players) > limit {
		players = players[:limit]
	}
	if players == nil {
		players = []game.Player{}
	}
	_ = json.NewEncoder(w).Encode(lbRes{Top: players})
}

// -----------------------------------------------------------------------------
// /v1/channels/{channelID}

// channelRes describes a channel's challenge. The answer is only revealed
// once the challenge is over.
type channelRes struct {
	ChannelID string              `json:"channelId"`
	StartedAt time.Time           `json:"startedAt"`
	Over      bool                `json:"isOver"`
	Answer    string              `json:"answer,omitempty"`
	Used      int                 `json:"usedAnswers"`
	History   []game.HistoryEntry `json:"history"`
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		log.Error().Err(err).Msg("load channel")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "no_game")
		return
	}
	res := channelRes{
		ChannelID: st.ChannelID,
		StartedAt: st.StartedAt,
		Over:      st.Over,
		Used:      len(st.UsedAnswers),
		History:   st.History,
	}
	if st.Over {
		res.Answer = st.Answer
	}
	if res.History == nil {
		res.History = []game.HistoryEntry{}
	}
	_ = json.NewEncoder(w).Encode(res)
}
