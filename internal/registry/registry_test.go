package registry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/botdash/botdash/internal/cache"
)

func newRegistry() (*Registry, *cache.Store[Config]) {
	st := cache.New[Config](0)
	return New(st), st
}

func TestRead_FreshStoreReturnsDefault(t *testing.T) {
	r, _ := newRegistry()
	got := r.Read()
	want := Config{ServerConnect: 3, TotalMessage: 40000, TotalCommand: 50}
	if got != want {
		t.Errorf("Read: got %+v, want %+v", got, want)
	}
}

func TestDefaultConfig_IsACopy(t *testing.T) {
	c := DefaultConfig()
	c.ServerConnect = 999
	if DefaultConfig().ServerConnect != 3 {
		t.Error("mutating a returned default changed later defaults")
	}

	r, _ := newRegistry()
	got := r.Read()
	got.TotalMessage = 1
	if r.Read().TotalMessage != 40000 {
		t.Error("mutating Read result changed the registry")
	}
}

func TestApply_OnlyPatchedFieldsChange(t *testing.T) {
	r, _ := newRegistry()

	tests := []struct {
		name  string
		patch map[string]any
		want  Config
	}{
		{"serverConnect", map[string]any{"serverConnect": float64(7)}, Config{7, 40000, 50}},
		{"totalMessage", map[string]any{"totalMessage": float64(12)}, Config{7, 12, 50}},
		{"totalCommand", map[string]any{"totalCommand": 99}, Config{7, 12, 99}},
		{"two fields", map[string]any{"serverConnect": int64(1), "totalCommand": json.Number("2")}, Config{1, 12, 2}},
		{"mixed valid and invalid", map[string]any{"totalMessage": float64(5), "totalCommand": "x", "foo": 1}, Config{1, 5, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Apply(tc.patch)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got != tc.want {
				t.Errorf("Apply: got %+v, want %+v", got, tc.want)
			}
			if read := r.Read(); read != tc.want {
				t.Errorf("Read after Apply: got %+v, want %+v", read, tc.want)
			}
		})
	}
}

func TestApply_EmptyStoreMergesOntoDefault(t *testing.T) {
	r, st := newRegistry()
	got, err := r.Apply(map[string]any{"totalCommand": float64(10)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := Config{ServerConnect: 3, TotalMessage: 40000, TotalCommand: 10}
	if got != want {
		t.Errorf("Apply: got %+v, want %+v", got, want)
	}
	if _, ok := st.Get(Key); !ok {
		t.Error("Apply did not store the merged record")
	}
}

func TestApply_RejectedLeavesStateUnchanged(t *testing.T) {
	r, st := newRegistry()
	if _, err := r.Apply(map[string]any{"serverConnect": float64(8)}); err != nil {
		t.Fatalf("seed Apply: %v", err)
	}
	before := r.Read()
	setsBefore := st.Stats().Sets

	rejected := []any{
		map[string]any{},
		map[string]any{"foo": float64(1)},
		map[string]any{"serverConnect": "5"},
		map[string]any{"totalMessage": nil},
		map[string]any{"totalCommand": true},
		map[string]any{"totalCommand": 1.5},
		nil,
		[]any{float64(1)},
		"serverConnect",
		float64(3),
	}
	for _, patch := range rejected {
		_, err := r.Apply(patch)
		if !errors.Is(err, ErrRejected) {
			t.Errorf("Apply(%#v): got err %v, want ErrRejected", patch, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Reason == "" {
			t.Errorf("Apply(%#v): expected *ValidationError with a reason, got %v", patch, err)
		}
	}

	if after := r.Read(); after != before {
		t.Errorf("Read after rejected patches: got %+v, want %+v", after, before)
	}
	if st.Stats().Sets != setsBefore {
		t.Error("rejected patch wrote to the store")
	}
}

func TestApply_RejectedOnFreshStoreKeepsDefault(t *testing.T) {
	r, st := newRegistry()
	if _, err := r.Apply(map[string]any{}); !errors.Is(err, ErrRejected) {
		t.Fatalf("Apply({}): got %v, want ErrRejected", err)
	}
	if st.Len() != 0 {
		t.Error("rejected patch created an entry")
	}
	if got := r.Read(); got != DefaultConfig() {
		t.Errorf("Read: got %+v, want default", got)
	}
}

func TestRead_AfterExpiryFallsBackToDefault(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := cache.New[Config](time.Hour).WithClock(func() time.Time { return now })
	r := New(st)

	if _, err := r.Apply(map[string]any{"serverConnect": float64(42)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if r.Read().ServerConnect != 42 {
		t.Fatal("Read before expiry: patch not visible")
	}

	now = now.Add(time.Hour)
	if got := r.Read(); got != DefaultConfig() {
		t.Errorf("Read after expiry: got %+v, want default", got)
	}

	// A patch after expiry merges onto the default, not the expired record.
	got, err := r.Apply(map[string]any{"totalMessage": float64(1)})
	if err != nil {
		t.Fatalf("Apply after expiry: %v", err)
	}
	want := Config{ServerConnect: 3, TotalMessage: 1, TotalCommand: 50}
	if got != want {
		t.Errorf("Apply after expiry: got %+v, want %+v", got, want)
	}
}

func TestPeek_MatchesReadWithoutCounting(t *testing.T) {
	r, st := newRegistry()
	if got := r.Peek(); got != DefaultConfig() {
		t.Errorf("Peek on fresh store: got %+v, want default", got)
	}
	if _, err := r.Apply(map[string]any{FieldTotalCommand: float64(4)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	before := st.Stats()

	if got, want := r.Peek(), r.Read(); got != want {
		t.Errorf("Peek: got %+v, want %+v", got, want)
	}
	after := st.Stats()
	if after.Hits != before.Hits+1 || after.Misses != before.Misses {
		t.Errorf("only Read should count: hits %d->%d, misses %d->%d",
			before.Hits, after.Hits, before.Misses, after.Misses)
	}
}

func TestSanitize_NumericForms(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(10), 10, true},
		{float32(4), 4, true},
		{int(3), 3, true},
		{int32(-2), -2, true},
		{uint8(9), 9, true},
		{json.Number("12"), 12, true},
		{json.Number("1e3"), 1000, true},
		{json.Number("2.5"), 0, false},
		{2.5, 0, false},
		{"12", 0, false},
		{uint64(1 << 63), 0, false},
	}
	for _, tc := range tests {
		p, err := Sanitize(map[string]any{FieldTotalMessage: tc.in})
		if !tc.ok {
			if err == nil {
				t.Errorf("Sanitize(%#v): expected rejection, got %+v", tc.in, p)
			}
			continue
		}
		if err != nil {
			t.Errorf("Sanitize(%#v): %v", tc.in, err)
			continue
		}
		if p.TotalMessage == nil || *p.TotalMessage != tc.want {
			t.Errorf("Sanitize(%#v): got %v, want %d", tc.in, p.TotalMessage, tc.want)
		}
	}
}

func TestConcurrentApply_NoLostUpdates(t *testing.T) {
	r, _ := newRegistry()
	var wg sync.WaitGroup

	// Each writer owns one field; every final field must hold its writer's value.
	for i := 0; i < 30; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			r.Apply(map[string]any{FieldServerConnect: float64(1)}) //nolint:errcheck
		}()
		go func() {
			defer wg.Done()
			r.Apply(map[string]any{FieldTotalMessage: float64(2)}) //nolint:errcheck
		}()
		go func() {
			defer wg.Done()
			r.Read()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Apply(map[string]any{FieldTotalCommand: float64(3)}) //nolint:errcheck
	}()
	wg.Wait()

	want := Config{ServerConnect: 1, TotalMessage: 2, TotalCommand: 3}
	if got := r.Read(); got != want {
		t.Errorf("Read after concurrent applies: got %+v, want %+v", got, want)
	}
}
