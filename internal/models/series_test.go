package models

import (
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestSeriesAccessors(t *testing.T) {
	s := NewSeries([]*float64{fp(1), nil, fp(3)})

	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	if v, ok := s.At(0); !ok || v != 1 {
		t.Errorf("At(0) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := s.At(1); ok {
		t.Errorf("At(1) should be missing")
	}
	if _, ok := s.At(-1); ok {
		t.Errorf("At(-1) should be out of range")
	}
	if _, ok := s.At(3); ok {
		t.Errorf("At(3) should be out of range")
	}

	if v, ok := s.Last(); !ok || v != 3 {
		t.Errorf("Last() = %v, %v; want 3, true", v, ok)
	}
	if got := s.LastIndex(); got != 2 {
		t.Errorf("LastIndex() = %d, want 2", got)
	}

	empty := NewSeries([]*float64{nil, nil})
	if empty.HasData() {
		t.Errorf("all-missing series should report no data")
	}
	if _, ok := empty.Last(); ok {
		t.Errorf("Last() on all-missing series should not be ok")
	}
}

func TestDayOverDay(t *testing.T) {
	tests := []struct {
		name string
		in   []*float64
		want []struct {
			val     float64
			defined bool
		}
	}{
		{
			name: "monotonic cumulative",
			in:   []*float64{fp(10), fp(20), fp(30), fp(40), fp(50)},
			want: []struct {
				val     float64
				defined bool
			}{{0, false}, {10, true}, {10, true}, {10, true}, {10, true}},
		},
		{
			name: "constant series diffs to zero",
			in:   []*float64{fp(7), fp(7), fp(7)},
			want: []struct {
				val     float64
				defined bool
			}{{0, false}, {0, true}, {0, true}},
		},
		{
			name: "negative revision clamps to zero",
			in:   []*float64{fp(10), fp(8), fp(12)},
			want: []struct {
				val     float64
				defined bool
			}{{0, false}, {0, true}, {4, true}},
		},
		{
			name: "missing operand poisons the diff, not the neighbors",
			in:   []*float64{fp(1), nil, fp(5)},
			want: []struct {
				val     float64
				defined bool
			}{{0, false}, {0, false}, {0, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewSeries(tt.in).DayOverDay()
			if d.Len() != len(tt.want) {
				t.Fatalf("len = %d, want %d", d.Len(), len(tt.want))
			}
			for i, w := range tt.want {
				v, ok := d.At(i)
				if ok != w.defined {
					t.Errorf("index %d: defined = %v, want %v", i, ok, w.defined)
					continue
				}
				if ok && v != w.val {
					t.Errorf("index %d: value = %v, want %v", i, v, w.val)
				}
			}
		})
	}
}

func dayAxis(n int) []time.Time {
	start := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func constSeries(n int, v float64) Series {
	vals := make([]*float64, n)
	for i := range vals {
		vals[i] = fp(v)
	}
	return NewSeries(vals)
}

func TestNewRegionSeriesValidation(t *testing.T) {
	net := map[SeriesKey]Series{}
	for _, k := range AllSeriesKeys() {
		net[k] = constSeries(3, 1)
	}

	if _, err := NewRegionSeries("XX", dayAxis(3), net, nil); err != nil {
		t.Fatalf("aligned region should build: %v", err)
	}

	bad := map[SeriesKey]Series{}
	for _, k := range AllSeriesKeys() {
		bad[k] = constSeries(3, 1)
	}
	bad[SeriesKey{Deaths, PerCapita}] = constSeries(2, 1)
	if _, err := NewRegionSeries("XX", dayAxis(3), bad, nil); err == nil {
		t.Fatalf("misaligned arrays should be rejected")
	}

	if _, err := NewRegionSeries("XX", nil, net, nil); err == nil {
		t.Fatalf("empty date axis should be rejected")
	}

	axis := dayAxis(3)
	axis[2] = axis[1]
	if _, err := NewRegionSeries("XX", axis, net, nil); err == nil {
		t.Fatalf("non-increasing date axis should be rejected")
	}
}

func TestRegionCutoffClamped(t *testing.T) {
	net := map[SeriesKey]Series{}
	for _, k := range AllSeriesKeys() {
		net[k] = constSeries(3, 1)
	}
	key := SeriesKey{Cases, Absolute}
	r, err := NewRegionSeries("XX", dayAxis(3), net, map[SeriesKey]int{key: 99})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Cutoff(key); got != 3 {
		t.Errorf("over-long cutoff should clamp to axis length, got %d", got)
	}
}
