package fpl

import (
	"fmt"
	"time"
)

type Player struct {
	ID                       int64      `json:"id"`
	WebName                  string     `json:"web_name"`
	FirstName                string     `json:"first_name"`
	SecondName               string     `json:"second_name"`
	News                     string     `json:"news"`
	NewsAdded                *time.Time `json:"news_added"`
	ChanceOfPlayingThisRound *int       `json:"chance_of_playing_this_round"`
}

type Players []Player

func (p Player) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.SecondName)
}

// ByID indexes players by their element id, as referenced from picks.
func (ps Players) ByID() map[int64]Player {
	index := make(map[int64]Player, len(ps))
	for _, p := range ps {
		index[p.ID] = p
	}
	return index
}

type Team struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PlayerFirstName string `json:"player_first_name"`
	CurrentEvent    int    `json:"current_event"`
}

type Pick struct {
	Element int64 `json:"element"`
}
