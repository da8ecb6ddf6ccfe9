package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/storage/postgres"
)

const barWidth = 20

// RenderEvent formats one battle event as colored Telnet text. Events with
// nothing to say render as "".
func RenderEvent(e battle.Event) string {
	switch e.Kind {
	case battle.EventDamage, battle.EventHeal:
		line := fmt.Sprintf("%-12s %s %d/%d", e.Name, telnet.HealthBar(e.After, e.Max, barWidth), e.After, e.Max)
		if e.Text != "" {
			return e.Text + "\r\n" + line
		}
		return line
	case battle.EventFaint:
		return telnet.Colorize(telnet.Red, e.Line())
	case battle.EventStage:
		if e.Delta < 0 {
			return telnet.Colorize(telnet.Blue, e.Line())
		}
		return telnet.Colorize(telnet.Magenta, e.Line())
	case battle.EventStatus:
		return telnet.Colorize(telnet.Yellow, e.Line())
	case battle.EventWeather:
		return telnet.Colorize(telnet.Cyan, e.Line())
	case battle.EventSendOut:
		return telnet.Colorize(telnet.Bold, e.Line())
	}
	return e.Line()
}

// RenderParty lists every occupied slot of p, marking the active one.
func RenderParty(p *creature.Party) string {
	var b strings.Builder
	for i, in := range p.Slots {
		if in == nil {
			continue
		}
		mark := " "
		if i == p.Active {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s%d. %-12s Lv%-3d %s %d/%d\r\n", mark, i+1, in.Name(), in.Level,
			telnet.HealthBar(in.Health, in.MaxHealth(), barWidth/2), in.Health, in.MaxHealth())
	}
	return b.String()
}

// RenderTeams lists teams as a numbered menu showing id, name and levels.
func RenderTeams(teams []*creature.Team) string {
	if len(teams) == 0 {
		return telnet.Colorize(telnet.Dim, "Nobody is around.") + "\r\n"
	}
	var b strings.Builder
	for i, t := range teams {
		levels := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			levels = append(levels, fmt.Sprintf("Lv%d", m.Level))
		}
		fmt.Fprintf(&b, "  %d. %-14s %-16s %s\r\n", i+1, t.ID, t.Name, strings.Join(levels, " "))
	}
	return b.String()
}

var outcomeColors = map[battle.Outcome]string{
	battle.Win:          telnet.Green,
	battle.Caught:       telnet.Green,
	battle.Loss:         telnet.Red,
	battle.Fled:         telnet.Yellow,
	battle.OpponentFled: telnet.Yellow,
}

// RenderResult summarises a finished battle.
func RenderResult(res *battle.Result) string {
	var b strings.Builder
	color, ok := outcomeColors[res.Outcome]
	if !ok {
		color = telnet.White
	}
	fmt.Fprintf(&b, "%s after %d turn(s).\r\n", telnet.Colorize(color, strings.ToUpper(res.Outcome.String())), res.Turns)
	if res.MoneyDelta != 0 {
		fmt.Fprintf(&b, "Money: %+d\r\n", res.MoneyDelta)
	}
	if res.Caught != nil {
		fmt.Fprintf(&b, "%s was added to your collection.\r\n", res.Caught.Name())
	}
	for _, d := range res.Diagnostics {
		b.WriteString(telnet.Colorize(telnet.Dim, "note: "+d.String()) + "\r\n")
	}
	return b.String()
}

// RenderRecords lists stored battle summaries, newest first.
func RenderRecords(recs []postgres.BattleRecord) string {
	if len(recs) == 0 {
		return telnet.Colorize(telnet.Dim, "No battles recorded yet.") + "\r\n"
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "  %s  %-8s %-14s vs %-16s %-13s %d turn(s)\r\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.PlayerName, r.OpponentName, r.Outcome, r.Turns)
	}
	return b.String()
}
