package service

import (
	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
)

const defaultLobbyLimit = 10

// ViewService projects state snapshots into render-only view models. It
// holds no references to the store: callers hand it the snapshot they want
// rendered.
type ViewService struct {
	lobbyLimit int
}

func NewViewService(lobbyLimit int) *ViewService {
	if lobbyLimit <= 0 {
		lobbyLimit = defaultLobbyLimit
	}
	return &ViewService{lobbyLimit: lobbyLimit}
}

// Admin renders the console for one counter: the token it is serving (nil
// when free) and the sector's full waiting queue, oldest first.
func (v *ViewService) Admin(state domain.QueueState, sector, counter string) ports.AdminView {
	if sector == "" {
		sector = state.ActiveSector
	}
	view := ports.AdminView{
		Sector:  sector,
		Counter: counter,
		Waiting: []ports.TokenView{},
	}
	if serving := state.ServingAt(sector, counter); serving != nil {
		tv := tokenView(*serving)
		view.Serving = &tv
	}
	for _, t := range state.Waiting(sector) {
		view.Waiting = append(view.Waiting, tokenView(t))
	}
	return view
}

// Lobby renders the public board: every serving token in the sector ordered
// by counter ascending, plus the first waiting tokens in store order.
func (v *ViewService) Lobby(state domain.QueueState, sector string) ports.LobbyView {
	if sector == "" {
		sector = state.ActiveSector
	}
	view := ports.LobbyView{
		Sector:  sector,
		Serving: []ports.DeskView{},
		Waiting: []ports.TokenView{},
	}
	for _, t := range state.Serving(sector) {
		view.Serving = append(view.Serving, ports.DeskView{Counter: t.Counter, Number: t.Number})
	}
	for _, t := range state.WaitingPreview(sector, v.lobbyLimit) {
		view.Waiting = append(view.Waiting, ports.TokenView{Number: t.Number, Type: t.Type})
	}
	return view
}

func tokenView(t domain.Token) ports.TokenView {
	return ports.TokenView{
		Number:  t.Number,
		Name:    t.Name,
		Type:    t.Type,
		Counter: t.Counter,
	}
}
