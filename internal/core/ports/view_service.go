package ports

import "github.com/tokenline/queue-display/internal/core/domain"

// TokenView is the renderable projection of a token handed to displays.
type TokenView struct {
	Number  string `json:"number"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Counter string `json:"counter,omitempty"`
}

// AdminView is what a counter operator's console renders.
type AdminView struct {
	Sector  string     `json:"sector"`
	Counter string     `json:"counter"`
	Serving *TokenView `json:"serving"`
	Waiting []TokenView `json:"waiting"`
}

// DeskView is one cell of the lobby serving grid.
type DeskView struct {
	Counter string `json:"counter"`
	Number  string `json:"number"`
}

// LobbyView is what the public board renders.
type LobbyView struct {
	Sector  string      `json:"sector"`
	Serving []DeskView  `json:"serving"`
	Waiting []TokenView `json:"waiting"`
}

// ViewService maps a state snapshot into render-only projections. Both
// methods are pure.
type ViewService interface {
	Admin(state domain.QueueState, sector, counter string) AdminView
	Lobby(state domain.QueueState, sector string) LobbyView
}
