package scenarios

import (
	"fmt"
	"time"

	"github.com/kilianp07/nightplan/core/azimuth"
	"github.com/kilianp07/nightplan/core/circumstance"
	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/listeners"
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/core/windows"
)

// Plan is a compiled scenario: the read model plus the collaborators the rules
// consult, ready to be built into a schedule.
type Plan struct {
	Scenario      *Scenario
	Site          model.Site
	Obs           map[string]*model.Obs
	Sampler       *circumstance.Static
	Collaborators listeners.Collaborators

	flags   map[string]model.FlagSet
	shutter map[string]string
	windy   map[model.Coords][]interval.Interval
	scores  map[string]float64
	spans   map[windows.Kind]map[string][]interval.Interval
}

// Compile resolves every reference in the scenario.
func (sc *Scenario) Compile() (*Plan, error) {
	p := &Plan{
		Scenario: sc,
		Obs:      map[string]*model.Obs{},
		Sampler:  circumstance.NewStatic(),
		flags:    map[string]model.FlagSet{},
		shutter:  map[string]string{},
		windy:    map[model.Coords][]interval.Interval{},
		scores:   map[string]float64{},
		spans: map[windows.Kind]map[string][]interval.Interval{
			windows.Visible: {},
			windows.Dark:    {},
		},
	}
	// timing window openness comes from the declared windows unless overridden
	p.Sampler.Fallback = circumstance.NewQuantized(nil, circumstance.DefaultQuantum)
	p.Site = model.Site{Name: sc.Site.Name, Latitude: sc.Site.Latitude, Longitude: sc.Site.Longitude}
	if sc.Site.Zone != "" {
		loc, err := time.LoadLocation(sc.Site.Zone)
		if err != nil {
			return nil, fmt.Errorf("site zone: %w", err)
		}
		p.Site.Location = loc
	}

	progs := map[string]*model.Prog{}
	for _, pd := range sc.Programs {
		prog := &model.Prog{ID: pd.ID, RemainingTime: pd.Remaining.Milliseconds(), EngOrCal: pd.EngOrCal}
		if pd.Band3Remaining != nil {
			b3 := pd.Band3Remaining.Milliseconds()
			prog.Band3RemainingTime = &b3
		}
		progs[pd.ID] = prog
	}

	for _, od := range sc.Observations {
		obs, err := p.compileObs(od, progs)
		if err != nil {
			return nil, fmt.Errorf("observation %s: %w", od.ID, err)
		}
		p.Obs[od.ID] = obs
	}

	for _, gd := range sc.Groups {
		g := &model.Group{ID: gd.ID}
		switch gd.Type {
		case "SCHEDULING":
			g.Type = model.GroupScheduling
		case "", "FOLDER":
			g.Type = model.GroupFolder
		default:
			return nil, fmt.Errorf("group %s: unknown type %q", gd.ID, gd.Type)
		}
		for _, id := range gd.Members {
			obs, ok := p.Obs[id]
			if !ok {
				return nil, fmt.Errorf("group %s: unknown observation %s", gd.ID, id)
			}
			obs.Group = g
			g.Observations = append(g.Observations, obs)
		}
	}

	for _, vd := range sc.Variants {
		for id, names := range vd.Flags {
			if _, ok := p.Obs[id]; !ok {
				return nil, fmt.Errorf("variant %s: flags for unknown observation %s", vd.Name, id)
			}
			fs, err := parseFlags(names)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", vd.Name, err)
			}
			p.flags[vd.Name+"/"+id] = fs
		}
	}

	p.Collaborators = listeners.Collaborators{
		Flags:   listeners.ClassifierFunc(p.flagsFor),
		Shutter: listeners.ShutterAdvisorFunc(p.shutterFor),
		Scores:  listeners.ScorerFunc(p.scoreFor),
		Windows: windows.ObsTiming{Next: windows.ProviderFunc(p.windowsFor)},
		Azimuth: azimuth.FactoryFunc(p.solverFor),
	}
	return p, nil
}

func (p *Plan) compileObs(od ObsDef, progs map[string]*model.Prog) (*model.Obs, error) {
	sc := p.Scenario
	prog, ok := progs[od.Prog]
	if !ok {
		return nil, fmt.Errorf("unknown program %q", od.Prog)
	}
	obs := &model.Obs{
		ID:         od.ID,
		Prog:       prog,
		Instrument: od.Instrument,
		Coords:     model.FixedCoords(od.Coords),
		Band:       od.Band,
		Priority:   od.Priority,
		LGS:        od.LGS,
		Conditions: model.AnySky{},
	}
	prog.Observations = append(prog.Observations, obs)
	if od.Class != "" {
		class, err := model.ParseObsClass(od.Class)
		if err != nil {
			return nil, err
		}
		obs.Class = class
	}
	if od.SkyBackground != nil {
		obs.Conditions = model.SkyBackground{Limit: *od.SkyBackground}
	}
	if od.Elevation != nil {
		ec := model.ElevationConstraint{Min: od.Elevation.Min, Max: od.Elevation.Max}
		switch od.Elevation.Type {
		case "", "NONE":
			ec.Type = model.ElevationNone
		case "AIRMASS":
			ec.Type = model.ElevationAirmass
		case "HOUR_ANGLE":
			ec.Type = model.ElevationHourAngle
		default:
			return nil, fmt.Errorf("unknown elevation constraint %q", od.Elevation.Type)
		}
		obs.ElevationConstraint = ec
	}
	for _, tw := range od.TimingWindows {
		start, end := sc.span(tw)
		w := model.TimingWindow{Start: start, Duration: -1}
		if end >= 0 {
			w.Duration = end - start
		}
		obs.TimingWindows = append(obs.TimingWindows, w)
	}
	obs.Steps = model.Steps{
		SetupTime:         od.Steps.Setup.Milliseconds(),
		ReacquisitionTime: od.Steps.Reacq.Milliseconds(),
		Done:              od.Steps.Done,
	}
	for _, d := range od.Steps.Times {
		obs.Steps.StepTimes = append(obs.Steps.StepTimes, d.Milliseconds())
	}

	fs, err := parseFlags(od.Flags)
	if err != nil {
		return nil, err
	}
	p.flags["/"+od.ID] = fs
	if od.Shutter != "" {
		p.shutter[od.ID] = od.Shutter
	}
	for _, w := range od.Windy {
		start, end := sc.span(w)
		p.windy[od.Coords] = append(p.windy[od.Coords], interval.Interval{Start: start, End: end})
	}
	if od.Score != 0 {
		p.scores[od.ID] = od.Score
	}
	for kind, defs := range map[windows.Kind][]SpanDef{windows.Visible: od.Visible, windows.Dark: od.Dark} {
		for _, d := range defs {
			start, end := sc.span(d)
			p.spans[kind][od.ID] = append(p.spans[kind][od.ID], interval.Interval{Start: start, End: end})
		}
	}
	for name, st := range od.Circumstances {
		c, err := model.ParseCircumstance(name)
		if err != nil {
			return nil, err
		}
		p.Sampler.Set(od.ID, c, circumstance.Pair{Visit: st.Visit, Science: st.Science})
	}
	return obs, nil
}

func parseFlags(names []string) (model.FlagSet, error) {
	fs := model.NewFlagSet()
	for _, n := range names {
		f, err := model.ParseFlag(n)
		if err != nil {
			return nil, err
		}
		fs[f] = struct{}{}
	}
	return fs, nil
}

// flagsFor merges the observation flags with the variant-specific ones.
func (p *Plan) flagsFor(v *schedule.Variant, obs *model.Obs) model.FlagSet {
	out := model.NewFlagSet()
	for f := range p.flags["/"+obs.ID] {
		out[f] = struct{}{}
	}
	for f := range p.flags[v.Name()+"/"+obs.ID] {
		out[f] = struct{}{}
	}
	return out
}

func (p *Plan) shutterFor(a *schedule.Alloc) (string, bool) {
	msg, ok := p.shutter[a.Obs().ID]
	return msg, ok
}

func (p *Plan) scoreFor(_ *schedule.Variant, obs *model.Obs) float64 {
	return p.scores[obs.ID]
}

// windowsFor serves the visible and dark spans declared for the observation.
func (p *Plan) windowsFor(_ *schedule.Schedule, obs *model.Obs, kind windows.Kind) *interval.Union {
	return interval.NewUnion(p.spans[kind][obs.ID]...)
}

// solverFor serves the windy spans declared for the target position.
func (p *Plan) solverFor(_ model.Site, coords model.CoordsFunc, _ model.WindConstraint) azimuth.Solver {
	var spans []interval.Interval
	if coords != nil {
		spans = p.windy[coords(0)]
	}
	return azimuth.SolverFunc(func(iv interval.Interval) *interval.Union {
		u := interval.NewUnion()
		for _, w := range spans {
			if x, ok := iv.Intersect(w); ok {
				u.Add(x)
			}
		}
		return u
	})
}

// ScheduleFactory creates an empty schedule, typically app.Session.NewSchedule.
type ScheduleFactory func(name string, opts ...schedule.Option) *schedule.Schedule

// Build creates the schedule described by the scenario through newSchedule. The
// plan's sampler and site are applied; allocations are forced in as an import would.
func (p *Plan) Build(newSchedule ScheduleFactory) (*schedule.Schedule, error) {
	sc := p.Scenario
	opts := []schedule.Option{schedule.WithSite(p.Site), schedule.WithSampler(p.Sampler)}
	if sc.ICTD != nil {
		opts = append(opts, schedule.WithICTD(*sc.ICTD))
	}
	sch := newSchedule(sc.Name, opts...)
	for _, b := range sc.Blocks {
		start, end := sc.span(b)
		if err := sch.AddBlock(start, end); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Start, err)
		}
	}
	for _, vd := range sc.Variants {
		v, err := sch.AddVariant(vd.Name)
		if err != nil {
			return nil, err
		}
		if vd.LGSOnly {
			if err := v.SetLGSOnly(true); err != nil {
				return nil, err
			}
		}
		if vd.Wind != nil {
			if err := v.SetWind(vd.Wind); err != nil {
				return nil, err
			}
		}
		for _, ad := range vd.Allocs {
			obs, ok := p.Obs[ad.Obs]
			if !ok {
				return nil, fmt.Errorf("variant %s: unknown observation %s", vd.Name, ad.Obs)
			}
			setup := schedule.SetupFull
			if ad.Setup != "" {
				if setup, err = schedule.ParseSetupType(ad.Setup); err != nil {
					return nil, err
				}
			}
			aopts := []schedule.AddOption{schedule.Force()}
			if ad.Comment != "" {
				aopts = append(aopts, schedule.WithComment(ad.Comment))
			}
			if _, err := v.AddAlloc(obs, sc.at(ad.Start), ad.First, ad.Last, setup, aopts...); err != nil {
				return nil, fmt.Errorf("variant %s: alloc %s: %w", vd.Name, ad.Obs, err)
			}
		}
	}
	return sch, nil
}
