// Package wanted is the plugin that issues wanted orders on events and
// lists who is wanted.
package wanted

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/targeting"
	"github.com/mcoot/autoumpire/internal/services/wanted"
	"github.com/mcoot/autoumpire/internal/ui"
)

// ExportList shows every order in force.
const ExportList = "wanted.list"

// FieldOrders is the per-assassin crime component on event forms.
const FieldOrders = "wanted.orders"

const expiryLayout = "Mon 2 Jan 15:04"

// Targeting computes who attacks whom, so the list can name the attackers
// of wanted players.
type Targeting interface {
	Compute(snapshot *model.Snapshot) (*targeting.Result, error)
}

type wantedPlugin struct {
	db        *database.Service
	clock     clock.Clock
	targeting Targeting
}

// New creates the wanted plugin. tgt may be nil, in which case attackers are
// never listed.
func New(db *database.Service, clk clock.Clock, tgt Targeting) *plugins.Plugin {
	w := &wantedPlugin{db: db, clock: clk, targeting: tgt}
	return &plugins.Plugin{
		ID:   wanted.PluginID,
		Name: "Wanted",
		Exports: []plugins.Export{
			{ID: ExportList, DisplayName: "Wanted -> List", Answer: w.answerList},
		},
		Subscriptions: []plugins.Subscription{
			{Hook: plugins.HookMail, Respond: w.mail},
		},
		Hooks: plugins.Hooks{
			EventRequestCreate: w.eventRequest,
			EventCreate:        w.eventResponse,
			EventRequestUpdate: w.eventRequest,
			EventUpdate:        w.eventResponse,
		},
	}
}

func (w *wantedPlugin) eventRequest(_ context.Context, e *model.Event) []ui.Component {
	defaults := make(map[string]ui.Crime)
	if e != nil {
		for id, o := range wanted.ReadEventState(e) {
			defaults[id] = ui.Crime{Duration: o.Duration, Crime: o.Crime, Redemption: o.Redemption}
		}
	}
	return []ui.Component{ui.Dependency{On: plugins.FieldEventAssassins, Components: []ui.Component{
		ui.AssassinDependentCrime{
			ID:        FieldOrders,
			Title:     "Wanted orders (duration 0 clears an order)",
			DependsOn: plugins.FieldEventAssassins,
			Defaults:  defaults,
		},
	}}}
}

// eventResponse stores the orders of assassins in the event. Entirely blank
// entries are dropped.
func (w *wantedPlugin) eventResponse(_ context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	orders := make(map[string]wanted.Order)
	for id, c := range ui.ValueOr(answers, FieldOrders, map[string]ui.Crime{}) {
		if _, ok := e.Assassins[id]; !ok {
			continue
		}
		crime, redemption := strings.TrimSpace(c.Crime), strings.TrimSpace(c.Redemption)
		if c.Duration == 0 && crime == "" && redemption == "" {
			continue
		}
		orders[id] = wanted.Order{Duration: c.Duration, Crime: crime, Redemption: redemption}
	}
	if len(orders) == 0 {
		e.PluginState.Remove(wanted.PluginID)
		return nil
	}
	if err := e.PluginState.Encode(wanted.PluginID, orders); err != nil {
		return []ui.Component{ui.Error(err)}
	}
	return nil
}

func describe(o wanted.Entry, loc *time.Location) string {
	s := fmt.Sprintf("wanted for %s until %s", o.Crime, o.Expires().In(loc).Format(expiryLayout))
	if o.Redemption != "" {
		s += "; redemption: " + o.Redemption
	}
	return s
}

func (w *wantedPlugin) answerList(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	snapshot, err := w.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	m := wanted.Build(snapshot)
	loc := model.Location(snapshot.State)
	now := w.clock.Now()

	var out []ui.Component
	for _, group := range []struct {
		title string
		ids   []string
	}{
		{"Wanted players", m.WantedAt(now)},
		{"Corrupt City Watch", m.CorruptAt(now)},
	} {
		if len(group.ids) == 0 {
			continue
		}
		out = append(out, ui.Info(group.title+":"))
		for _, id := range group.ids {
			o, _ := m.CurrentOrder(id, now)
			out = append(out, ui.Warning(id+" "+describe(o, loc)))
		}
	}
	if len(out) == 0 {
		return []ui.Component{ui.Info("Nobody is wanted.")}, nil
	}
	attackers, err := w.attackers(snapshot, m.WantedAt(now))
	if err != nil {
		return nil, err
	}
	return append(out, attackers...), nil
}

// attackers lists who is after each wanted player. Nothing is shown while
// the targeting plugin is off or its information is hidden.
func (w *wantedPlugin) attackers(snapshot *model.Snapshot, ids []string) ([]ui.Component, error) {
	if w.targeting == nil || len(ids) == 0 ||
		!snapshot.State.PluginEnabled(targeting.PluginID, true) ||
		!targeting.ShowTargetingInfo(snapshot.State) {
		return nil, nil
	}
	result, err := w.targeting.Compute(snapshot)
	if err != nil {
		return nil, err
	}
	var out []ui.Component
	for _, id := range ids {
		if as := result.AttackersOf(id); len(as) > 0 {
			out = append(out, ui.Info("Attackers of "+id+": "+strings.Join(as, ", ")))
		}
	}
	return out, nil
}

func (w *wantedPlugin) mail(_ context.Context, _ ui.Answers, payload any) []ui.Component {
	bag, ok := payload.(*plugins.Mailbag)
	if !ok {
		return nil
	}
	m := wanted.Build(bag.Snapshot)
	loc := model.Location(bag.Snapshot.State)

	var list []listing
	for _, id := range append(m.WantedAt(bag.At), m.CorruptAt(bag.At)...) {
		a, ok := bag.Snapshot.Assassin(id)
		if !ok {
			continue
		}
		o, _ := m.CurrentOrder(id, bag.At)
		list = append(list, listing{Pseudonym: a.InitialPseudonym(), Crime: o.Crime})
	}

	for _, email := range bag.Emails {
		var own string
		if o, wantedNow := m.CurrentOrder(email.Recipient.Identifier(), bag.At); wantedNow {
			own = describe(o, loc)
		}
		if own != "" || len(list) > 0 {
			email.Add("Wanted", wantedSection(own, list))
		}
	}
	return nil
}
