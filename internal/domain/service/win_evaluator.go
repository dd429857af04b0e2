package service

import "github.com/duskcircle/nightwatch/internal/domain/entity"

// WinEvaluator decides whether a session's current alive-participant
// composition has reached a terminal state. It runs after every mortality
// change: reveal_dead and eliminate_player.
type WinEvaluator struct{}

func NewWinEvaluator() *WinEvaluator {
	return &WinEvaluator{}
}

// Evaluate implements the final-two rule: once two or fewer non-host
// participants remain alive, werewolves win if any of them is a werewolf,
// otherwise villagers win. Above that threshold, villagers win once no
// werewolf remains alive; any other composition is still in progress.
func (e *WinEvaluator) Evaluate(session *entity.Session) entity.WinState {
	alive := session.AliveNonHosts()

	aliveWolves := 0
	for _, p := range alive {
		if p.Role == entity.RoleWerewolf {
			aliveWolves++
		}
	}

	if len(alive) <= 2 {
		if aliveWolves > 0 {
			return entity.WinWerewolves
		}
		return entity.WinVillagers
	}

	if aliveWolves == 0 {
		return entity.WinVillagers
	}

	return entity.WinNone
}

// ApplyIfTerminal evaluates the session and, if a win state is reached,
// sets Session.WinState and transitions Phase to ended. Returns true if the
// game ended. Caller must hold the session lock.
func (e *WinEvaluator) ApplyIfTerminal(session *entity.Session) bool {
	outcome := e.Evaluate(session)
	if outcome == entity.WinNone {
		return false
	}
	session.WinState = outcome
	session.Phase = entity.PhaseEnded
	return true
}
