package extract

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"chartline/internal/core/timeline"
	"chartline/internal/core/vars"
	"chartline/internal/core/window"
	perr "chartline/internal/platform/errors"
)

// Vectorize builds one normalized input row from user supplied "name=value"
// pairs. Names must match the inputs exactly, offsets included.
func Vectorize(reg *vars.Registry, inputs []string, values string, mode vars.NormMode) ([]float64, error) {
	refs, err := reg.ResolveAll(inputs)
	if err != nil {
		return nil, err
	}
	given := map[string]float64{}
	for _, item := range strings.Split(values, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, lit, found := strings.Cut(item, "=")
		if !found {
			return nil, perr.InvalidArgf("extract: %q is not name=value", item)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(lit), 64)
		if err != nil {
			return nil, perr.InvalidArgf("extract: %q value is not a number", item)
		}
		given[strings.TrimSpace(name)] = v
	}

	row := make([]float64, len(refs))
	for i, ref := range refs {
		v, ok := given[ref.Raw]
		if !ok {
			return nil, perr.WithField(perr.InvalidArgf("extract: no value for input %q", ref.Raw), ref.Raw)
		}
		row[i] = vars.Normalize(v, ref.Desc, mode)
	}
	return row, nil
}

// Pairs collects (a, b) for every step of w where both resolve, clipped to
// their bounds. A pair equal to the one before it is skipped so a value
// carried across many steps is counted once.
func Pairs(tl *timeline.Timeline, w window.Window, a, b vars.Ref) ([]float64, []float64) {
	var xs, ys []float64
	havePrev := false
	var pa, pb float64
	for i := w.FirstStep; i <= w.LastStep && i < tl.Len(); i++ {
		va, ok := lookup(tl, w, i, a)
		if !ok {
			continue
		}
		vb, ok := lookup(tl, w, i, b)
		if !ok {
			continue
		}
		va, vb = a.Desc.Clip(va), b.Desc.Clip(vb)
		if havePrev && va == pa && vb == pb {
			continue
		}
		xs = append(xs, va)
		ys = append(ys, vb)
		pa, pb, havePrev = va, vb, true
	}
	return xs, ys
}

// Pearson is the population correlation of xs and ys; NaN when either side
// has no variance or the lengths differ
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return math.NaN()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}

// Spearman is the Pearson correlation of the ranks; ties share their average rank
func Spearman(xs, ys []float64) float64 {
	if len(xs) != len(ys) {
		return math.NaN()
	}
	return Pearson(ranks(xs), ranks(ys))
}

func ranks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	out := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}
