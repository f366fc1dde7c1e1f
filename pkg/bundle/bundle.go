// Package bundle checks the invariants that span the suites of one report
// bundle: the primary suite must be present, paired suite variants must not
// carry an older security patch, and a few device-identifying summary
// fields must agree everywhere. Only a missing primary is fatal.
package bundle

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

// Check validates the cross-suite invariants of suites, keyed by suite
// identity.
func Check(suites map[string]*reconciler.Suite, opts ...Option) (*Report, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	for id, s := range suites {
		if s == nil {
			return nil, errors.NewInvalidArgumentError("Check", "suite %q is nil", id)
		}
	}
	if _, ok := suites[o.primary]; !ok {
		return nil, errors.NewNotFoundError("primary suite", o.primary)
	}

	r := &Report{
		primary: o.primary,
		suites:  make(map[string]*reconciler.Suite, len(suites)),
		flags:   make(map[string]Flags, len(suites)),
		shared:  make(map[string]string),
	}
	for id, s := range suites {
		r.suites[id] = s
		r.flags[id] = Flags{}
	}

	logger := o.logger.With().Str("primary", o.primary).Logger()
	r.inspectPatches(o.patchPairs, logger)
	r.inspectShared(o.sharedFields, logger)
	r.joinDeviceInfo()

	logger.Debug().Strs("suites", r.Suites()).Msg("Checked bundle")
	return r, nil
}

func (r *Report) inspectPatches(pairs []string, logger zerolog.Logger) {
	level, _ := r.suites[r.primary].MainSummary(constants.FieldSecurityPatch)
	want, err := patchMonth(level)
	if err != nil {
		logger.Warn().Err(err).Msg("Primary security patch unreadable, skipping patch check")
		return
	}

	for _, id := range pairs {
		s, ok := r.suites[id]
		if !ok || id == r.primary {
			continue
		}
		f := r.flags[id]
		f.SecurityPatch, _ = s.MainSummary(constants.FieldSecurityPatch)

		got, err := patchMonth(f.SecurityPatch)
		switch {
		case err != nil:
			f.WrongSecurityPatch = true
			f.PatchNote = "unreadable security patch"
		case got < want:
			f.WrongSecurityPatch = true
			f.PatchNote = "older than " + r.primary + " security patch " + level
		}
		if f.WrongSecurityPatch {
			logger.Warn().
				Str("suite", id).
				Str("patch", f.SecurityPatch).
				Str("primary_patch", level).
				Msg("Security patch behind primary suite")
		}
		r.flags[id] = f
	}
}

// absent stands for a shared field the main run does not report. It takes
// part in the comparison like any other value.
const absent = "\x00absent"

func (r *Report) inspectShared(fields []string, logger zerolog.Logger) {
	ids := r.Suites()
	for _, field := range fields {
		values := make(map[string]string, len(ids))
		counts := make(map[string]int)
		for _, id := range ids {
			v, ok := r.suites[id].MainSummary(field)
			if !ok {
				v = absent
			}
			values[id] = v
			counts[v]++
		}

		consensus := plurality(counts, values[r.primary])
		if consensus != absent {
			r.shared[field] = consensus
		}
		if len(counts) == 1 {
			continue
		}

		var divergent []string
		for _, id := range ids {
			f := r.flags[id]
			f.InconsistentFields = append(f.InconsistentFields, field)
			if values[id] != consensus {
				f.DivergentFields = append(f.DivergentFields, field)
				divergent = append(divergent, id)
			}
			r.flags[id] = f
		}
		logger.Warn().Str("field", field).Strs("divergent", divergent).Msg("Shared summary field differs between suites")
	}
}

// plurality returns the most frequent value. Ties go to preferred when it
// is among the leaders, otherwise to the smallest value.
func plurality(counts map[string]int, preferred string) string {
	best := -1
	var leaders []string
	for v, n := range counts {
		switch {
		case n > best:
			best, leaders = n, []string{v}
		case n == best:
			leaders = append(leaders, v)
		}
	}
	for _, v := range leaders {
		if v == preferred {
			return v
		}
	}
	sort.Strings(leaders)
	return leaders[0]
}

func (r *Report) joinDeviceInfo() {
	index := make(map[string]int)
	for _, id := range r.Ordered() {
		run := r.suites[id].Main().Run()
		for _, prop := range run.DeviceProperties() {
			i, ok := index[prop.Key]
			if !ok {
				i = len(r.devices)
				index[prop.Key] = i
				r.devices = append(r.devices, DeviceRow{Property: prop.Key, Values: make(map[string]string)})
			}
			r.devices[i].Values[id] = prop.Value
		}
	}
}
