package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/damage"
	"github.com/abhisek/mathduel/internal/problemgen"
)

type startBattleRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Level      int    `json:"level"`
	Preference string `json:"preference"`
	Opponent   string `json:"opponent"`
	Archetype  string `json:"archetype"`
	Seed       uint64 `json:"seed"`
}

type playCardRequest struct {
	CardID      string `json:"card_id"`
	CombatantID string `json:"combatant_id"`

	Preference        string `json:"preference"`
	OpponentArchetype string `json:"opponent_archetype"`
	TimeRemainingSec  int    `json:"time_remaining"`
}

type answerRequest struct {
	Answer         string `json:"answer"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	HintsUsed      int    `json:"hints_used"`
}

// problemView is a problem as shown to the answering side; it never
// includes the answer.
type problemView struct {
	Text             string     `json:"text"`
	Options          []string   `json:"options,omitempty"`
	Hints            []string   `json:"hints,omitempty"`
	Difficulty       int        `json:"difficulty"`
	TimeAllowanceSec int        `json:"time_allowance"`
	Topic            card.Topic `json:"topic"`
	Source           string     `json:"source"`
}

type playResponse struct {
	PlayID   string       `json:"play_id"`
	Side     battle.Side  `json:"side"`
	Card     card.Card    `json:"card"`
	Problem  problemView  `json:"problem"`
	Preview  damage.Range `json:"damage_preview"`
	Deadline time.Time    `json:"deadline"`
}

type enemyTurnResponse struct {
	Play   playResponse         `json:"play"`
	Answer *battle.AnswerResult `json:"answer"`
}

func viewProblem(p *problemgen.Problem) problemView {
	return problemView{
		Text:             p.Text,
		Options:          p.Options,
		Hints:            p.Hints,
		Difficulty:       p.Difficulty,
		TimeAllowanceSec: int(p.TimeAllowance / time.Second),
		Topic:            p.Topic,
		Source:           string(p.Source),
	}
}

func viewPlay(pl *battle.PlayResult) playResponse {
	return playResponse{
		PlayID:   pl.PlayID,
		Side:     pl.Side,
		Card:     pl.Card,
		Problem:  viewProblem(pl.Problem),
		Preview:  pl.Preview,
		Deadline: pl.Deadline,
	}
}

func parsePreference(s string) (problemgen.Preference, error) {
	switch p := problemgen.Preference(s); p {
	case "", problemgen.PreferencePractice, problemgen.PreferenceAdaptive, problemgen.PreferenceChallenge:
		return p, nil
	}
	return "", badRequest("preference must be practice, adaptive or challenge")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "battles": s.Battles.Len()})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.All())
}

func (s *Server) engine(r *http.Request) (*battle.Engine, error) {
	return s.Battles.Get(chi.URLParam(r, "battleID"))
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req startBattleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.PlayerID == "" {
		s.handleError(w, r, badRequest("player_id is required"))
		return
	}
	if req.PlayerID == battle.EnemyID {
		s.handleError(w, r, badRequest("player_id is reserved"))
		return
	}
	pref, err := parsePreference(req.Preference)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	e, err := s.Battles.Start(r.Context(), battle.StartRequest{
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		Level:      req.Level,
		Preference: pref,
		Opponent:   req.Opponent,
		Archetype:  req.Archetype,
		Seed:       req.Seed,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/battles/"+e.ID())
	writeJSON(w, http.StatusCreated, e.Summary())
}

func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Summary())
}

func (s *Server) handleDeleteBattle(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.Battles.Remove(e.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlayCard(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var req playCardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.CardID == "" {
		s.handleError(w, r, badRequest("card_id is required"))
		return
	}
	pref, err := parsePreference(req.Preference)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.CombatantID == "" {
		req.CombatantID = e.State().Player.ID
	}

	pl, err := e.PlayCard(r.Context(), battle.PlayRequest{
		CardID:      req.CardID,
		CombatantID: req.CombatantID,
		Context: problemgen.BattleContext{
			Preference:        pref,
			OpponentArchetype: req.OpponentArchetype,
			TimeRemainingSec:  req.TimeRemainingSec,
		},
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if s.Countdown {
		log := s.logger(r)
		if err := e.ArmCountdown(pl.PlayID, func(res *battle.AnswerResult) {
			log.Info("play expired", "battle", e.ID(), "play", res.PlayID, "penalty", res.Penalty)
		}); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, viewPlay(pl))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	res, err := e.SubmitAnswer(r.Context(), battle.AnswerRequest{
		PlayID:         chi.URLParam(r, "playID"),
		Answer:         req.Answer,
		ResponseTimeMs: req.ResponseTimeMs,
		HintsUsed:      req.HintsUsed,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	res, err := e.TimeUp(r.Context(), chi.URLParam(r, "playID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEnemyTurn(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	// The enemy play finishes even if the client goes away.
	res, err := e.EnemyTurn(context.WithoutCancel(r.Context()))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enemyTurnResponse{Play: viewPlay(res.Play), Answer: res.Answer})
}
