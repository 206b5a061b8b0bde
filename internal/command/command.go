// internal/command/command.go
//
// Chat command surface.
// Responsibilities:
//   - Parse inbound messages into commands (ciyi / ciyi.每日挑战 / ciyi.猜 / ciyi.排行榜).
//   - Treat bare two-character messages as guesses when passive mode is on.
//   - Run the command against the engine and turn every outcome, including
//     errors, into exactly one reply.
//   - Decorate replies with a quote of the trigger and/or a mention of the sender.

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/ciyi/internal/catalog"
	"github.com/robalobadob/ciyi/internal/game"
	"github.com/robalobadob/ciyi/internal/present"
	"github.com/robalobadob/ciyi/internal/words"
)

// Name identifies a command.
type Name string

const (
	Help        Name = "help"
	Start       Name = "start-challenge"
	Guess       Name = "guess"
	Leaderboard Name = "leaderboard"
)

// Prefix is the root chat command.
const Prefix = "ciyi"

// aliases maps chat sub-commands (after "ciyi.") to command names.
var aliases = map[string]Name{
	"每日挑战": Start,
	"猜":    Guess,
	"排行榜":  Leaderboard,

	string(Start):       Start,
	string(Guess):       Guess,
	string(Leaderboard): Leaderboard,
}

// Message is an inbound chat message.
type Message struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

// Reply is the single response to a command.
type Reply struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	QuoteID   string `json:"quoteId,omitempty"`
	MentionID string `json:"mentionId,omitempty"`
}

// Render returns the reply in element markup: an optional quote, an
// optional mention followed by a paragraph break, then the text.
func (r Reply) Render() string {
	var b strings.Builder
	if r.QuoteID != "" {
		fmt.Fprintf(&b, `<quote id="%s"/>`, r.QuoteID)
	}
	if r.MentionID != "" {
		fmt.Fprintf(&b, `<at id="%s"/><p></p>`, r.MentionID)
	}
	b.WriteString(r.Text)
	return b.String()
}

// Options control reply decoration, passive guessing and row caps.
type Options struct {
	AtReply      bool
	QuoteReply   bool
	PassiveGuess bool
	MaxHistory   int
	MaxRank      int
}

// Dispatcher routes messages to the engine.
type Dispatcher struct {
	engine *game.Engine
	opts   Options
}

// NewDispatcher returns a Dispatcher for engine.
func NewDispatcher(engine *game.Engine, opts Options) *Dispatcher {
	return &Dispatcher{engine: engine, opts: opts}
}

// Parse splits text into a command and its arguments.
// ok is false when text is not addressed to the bot.
func Parse(text string) (name Name, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil, false
	}
	head, args := fields[0], fields[1:]
	if head == Prefix {
		if len(args) == 0 {
			return Help, nil, true
		}
		// "ciyi 猜 企业" is accepted as well as "ciyi.猜 企业".
		head, args = Prefix+"."+args[0], args[1:]
	}
	sub, found := strings.CutPrefix(head, Prefix+".")
	if !found {
		return "", nil, false
	}
	name, ok = aliases[sub]
	return name, args, ok
}

// Handle answers msg. handled is false when the message is neither a
// command nor an eligible passive guess; the caller should ignore it.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (reply Reply, handled bool) {
	if name, args, ok := Parse(msg.Text); ok {
		return d.Run(ctx, name, msg, args), true
	}
	if !d.opts.PassiveGuess {
		return Reply{}, false
	}

	text := strings.TrimSpace(msg.Text)
	if !words.IsWordShape(text) || !d.engine.Pool().IsValidGuess(text) {
		return Reply{}, false
	}
	active, err := d.engine.Active(ctx, msg.ChannelID)
	if err != nil {
		log.Error().Err(err).Str("channel", msg.ChannelID).Msg("passive guess lookup")
		return Reply{}, false
	}
	if !active {
		return Reply{}, false
	}
	return d.Run(ctx, Guess, msg, []string{text}), true
}

// Run executes a named command and always produces a reply.
func (d *Dispatcher) Run(ctx context.Context, name Name, msg Message, args []string) Reply {
	var text string
	switch name {
	case Start:
		text = d.start(ctx, msg)
	case Guess:
		var guess string
		if len(args) > 0 {
			guess = args[0]
		}
		text = d.guess(ctx, msg, guess)
	case Leaderboard:
		text = d.leaderboard(ctx)
	default:
		text = present.Help
	}
	return d.decorate(msg, text)
}

func (d *Dispatcher) start(ctx context.Context, msg Message) string {
	if _, err := d.engine.Start(ctx, msg.ChannelID); err != nil {
		return d.errorText(msg, "", err)
	}
	return present.Rules
}

func (d *Dispatcher) guess(ctx context.Context, msg Message, guess string) string {
	guess = strings.TrimSpace(guess)
	player := game.Player{ID: msg.UserID, DisplayName: msg.Username}
	res, err := d.engine.Guess(ctx, msg.ChannelID, player, guess)
	if err != nil {
		return d.errorText(msg, guess, err)
	}
	if res.Outcome == game.OutcomeWon {
		return present.Win(res.Answer, res.Attempts)
	}
	return present.FormatHistory(res.History, d.opts.MaxHistory)
}

func (d *Dispatcher) leaderboard(ctx context.Context) string {
	players, err := d.engine.Leaderboard(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load leaderboard")
		return present.MsgInternalError
	}
	return present.Leaderboard(present.FormatLeaderboard(players, d.opts.MaxRank))
}

// errorText maps engine errors to user-facing text.
func (d *Dispatcher) errorText(msg Message, guess string, err error) string {
	switch {
	case errors.Is(err, game.ErrBadLength):
		return present.MsgNeedTwoChars
	case errors.Is(err, game.ErrNotInWordList):
		return present.NotInWordList(guess)
	case errors.Is(err, game.ErrDuplicateGuess):
		return present.AlreadyGuessed(guess)
	case errors.Is(err, game.ErrChallengeOver):
		return present.MsgChallengeOver
	case errors.Is(err, game.ErrUnfinished):
		return present.MsgUnfinished
	case errors.Is(err, game.ErrAlreadyActive):
		return present.MsgAlreadyStarted
	case errors.Is(err, game.ErrAlreadyCompletedToday):
		return present.MsgCompletedToday
	case errors.Is(err, game.ErrPoolExhausted):
		return present.MsgPoolExhausted
	case errors.Is(err, catalog.ErrUnavailable):
		return present.MsgCatalogDown
	}
	log.Error().Err(err).Str("channel", msg.ChannelID).Str("user", msg.UserID).Msg("command failed")
	return present.MsgInternalError
}

func (d *Dispatcher) decorate(msg Message, text string) Reply {
	r := Reply{ID: uuid.NewString(), Text: text}
	if d.opts.QuoteReply {
		r.QuoteID = msg.MessageID
	}
	if d.opts.AtReply {
		r.MentionID = msg.UserID
	}
	return r
}
