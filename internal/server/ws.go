package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/game"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// clientMessage is sent by the browser or any websocket client.
//
//	{"type":"move","index":4}
//	{"type":"next_round"}
//	{"type":"new_match"}
//	{"type":"state"}
type clientMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type serverMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type sessionState struct {
	MatchID    string       `json:"match_id"`
	Round      int          `json:"round"`
	Human      string       `json:"human"`
	Difficulty string       `json:"difficulty"`
	Game       game.State   `json:"game"`
	Score      [2]int       `json:"score"`
	Rounds     []game.Round `json:"rounds"`
	Result     string       `json:"result,omitempty"`
}

// playSession is one human playing a best-of-three match against the
// engine over a websocket. It is driven by a single goroutine.
type playSession struct {
	conn       *websocket.Conn
	server     *HTTPServer
	logger     logging.ContextLogger
	match      *game.Match
	human      engine.Player
	difficulty string
}

// handlePlay upgrades to a websocket. Query parameters: human=X|O (default
// X) and difficulty (default from configuration).
func (s *HTTPServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	humanParam := q.Get("human")
	if humanParam == "" {
		humanParam = "X"
	}
	human, err := engine.ParsePlayer(strings.ToUpper(humanParam))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid human: "+err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		s.logger.WithContext(r.Context()).Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.prometheus.SessionOpened()
	defer s.prometheus.SessionClosed()

	sess := &playSession{
		conn:       conn,
		server:     s,
		logger:     s.logger.WithContext(r.Context()),
		match:      game.NewMatch(),
		human:      human,
		difficulty: q.Get("difficulty"),
	}
	sess.logger.Info("Play session opened", "match_id", sess.match.ID, "human", human.String())
	sess.run()
	sess.logger.Info("Play session closed", "match_id", sess.match.ID)
}

func (p *playSession) run() {
	if err := p.startRound(); err != nil {
		return
	}
	for {
		var msg clientMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Debug("Websocket read failed", "error", err)
			}
			return
		}
		if err := p.handle(msg); err != nil {
			return
		}
	}
}

// handle applies one client message. Only write errors are returned; game
// errors are reported to the client.
func (p *playSession) handle(msg clientMessage) error {
	switch msg.Type {
	case "move":
		if p.match.Over() || p.match.Current().Over() {
			return p.sendError(game.ErrGameOver)
		}
		if p.match.Current().Turn() != p.human {
			return p.sendError(errors.New("not your turn"))
		}
		if err := p.play(msg.Index); err != nil {
			return p.sendError(err)
		}
		if !p.match.Current().Over() {
			if err := p.engineTurn(); err != nil {
				return err
			}
		}
		return p.sendState()
	case "next_round":
		if err := p.match.NextRound(); err != nil {
			return p.sendError(err)
		}
		return p.startRound()
	case "new_match":
		p.match = game.NewMatch()
		return p.startRound()
	case "state":
		return p.sendState()
	default:
		return p.sendError(errors.New("unknown message type: " + msg.Type))
	}
}

// startRound lets the engine open when the human plays O.
func (p *playSession) startRound() error {
	if p.match.Current().Turn() != p.human {
		if err := p.engineTurn(); err != nil {
			return err
		}
	}
	return p.sendState()
}

func (p *playSession) play(idx int) error {
	if err := p.match.Play(idx); err != nil {
		return err
	}
	if g := p.match.Current(); g.Over() {
		p.server.prometheus.RecordGameResult(g.Winner())
		p.logger.Info("Round finished",
			"match_id", p.match.ID,
			"winner", g.Winner(),
			"match_result", string(p.match.Result()),
		)
	}
	return nil
}

func (p *playSession) engineTurn() error {
	g := p.match.Current()
	res, err := p.server.deps.Engine.Move(engine.MoveRequest{
		Board:      g.Board().Strings(),
		Player:     g.Turn().String(),
		Difficulty: p.difficulty,
	})
	if err == nil && res.Move == engine.NoMove {
		err = errors.New("engine found no move")
	}
	if err == nil {
		err = p.play(res.Move)
	}
	if err != nil {
		p.logger.Error("Engine move failed", "error", err)
		return p.sendError(err)
	}
	return p.send(serverMessage{Type: "ai_move", Payload: newMoveResponse(res)})
}

func (p *playSession) state() sessionState {
	p1, p2 := p.match.Score()
	return sessionState{
		MatchID:    p.match.ID,
		Round:      p.match.RoundNumber(),
		Human:      p.human.String(),
		Difficulty: p.difficulty,
		Game:       p.match.Current().State(),
		Score:      [2]int{p1, p2},
		Rounds:     p.match.Rounds(),
		Result:     string(p.match.Result()),
	}
}

func (p *playSession) sendState() error {
	return p.send(serverMessage{Type: "state", Payload: p.state()})
}

func (p *playSession) sendError(err error) error {
	return p.send(serverMessage{Type: "error", Error: err.Error()})
}

func (p *playSession) send(msg serverMessage) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return p.conn.WriteJSON(msg)
}
