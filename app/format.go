package app

import (
	"fmt"

	"github.com/fiffu/fplwatch/fpl"
)

func globalBody(player fpl.Player) string {
	return fmt.Sprintf("%s's status has been updated: %s.%s",
		player.WebName, newsOrAvailable(player.News), chanceSuffix(player))
}

func scopedBody(team *fpl.Team, player fpl.Player) string {
	return fmt.Sprintf("Hi %s, %s's status has been updated: %s.%s",
		greeting(team), player.FullName(), newsOrAvailable(player.News), chanceSuffix(player))
}

func newsOrAvailable(news string) string {
	if news == "" {
		return "No news, player is available"
	}
	return news
}

func chanceSuffix(player fpl.Player) string {
	if player.ChanceOfPlayingThisRound == nil {
		return ""
	}
	return fmt.Sprintf(" Their chance of playing this round is estimated at %d%%.", *player.ChanceOfPlayingThisRound)
}

func greeting(team *fpl.Team) string {
	if team.PlayerFirstName != "" {
		return team.PlayerFirstName
	}
	return team.Name
}
