package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/botdash/botdash/internal/cache"
)

// Key is the cache key the configuration record is stored under.
const Key = "configs"

// Field names accepted in a patch.
const (
	FieldServerConnect = "serverConnect"
	FieldTotalMessage  = "totalMessage"
	FieldTotalCommand  = "totalCommand"
)

// ErrRejected is returned by Sanitize and Apply when a patch carries no
// recognised numeric field.
var ErrRejected = errors.New("config patch rejected")

// ValidationError describes why a patch was rejected. It matches ErrRejected
// under errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", ErrRejected, e.Reason) }

func (e *ValidationError) Is(target error) bool { return target == ErrRejected }

// Config is the bot dashboard configuration.
type Config struct {
	ServerConnect int64 `json:"serverConnect"`
	TotalMessage  int64 `json:"totalMessage"`
	TotalCommand  int64 `json:"totalCommand"`
}

// DefaultConfig returns the configuration used when none is stored.
func DefaultConfig() Config {
	return Config{
		ServerConnect: 3,
		TotalMessage:  40000,
		TotalCommand:  50,
	}
}

// Patch is a sanitized partial Config. A nil field was not supplied.
type Patch struct {
	ServerConnect *int64
	TotalMessage  *int64
	TotalCommand  *int64
}

// Fields returns the number of populated fields.
func (p Patch) Fields() int {
	n := 0
	for _, f := range []*int64{p.ServerConnect, p.TotalMessage, p.TotalCommand} {
		if f != nil {
			n++
		}
	}
	return n
}

// ApplyTo returns c with every populated field of p overwritten.
func (p Patch) ApplyTo(c Config) Config {
	if p.ServerConnect != nil {
		c.ServerConnect = *p.ServerConnect
	}
	if p.TotalMessage != nil {
		c.TotalMessage = *p.TotalMessage
	}
	if p.TotalCommand != nil {
		c.TotalCommand = *p.TotalCommand
	}
	return c
}

// Sanitize converts an untyped patch into a Patch.
//
// raw must be a JSON-style object (map[string]any). Known fields holding an
// integral number are kept; unknown fields, non-numeric values and numbers
// with a fractional part are dropped. A patch left with no fields is
// rejected.
func Sanitize(raw any) (Patch, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Patch{}, &ValidationError{Reason: fmt.Sprintf("expected an object, got %s", kindOf(raw))}
	}

	var p Patch
	for name, dst := range map[string]**int64{
		FieldServerConnect: &p.ServerConnect,
		FieldTotalMessage:  &p.TotalMessage,
		FieldTotalCommand:  &p.TotalCommand,
	} {
		v, present := obj[name]
		if !present {
			continue
		}
		if n, ok := toInt64(v); ok {
			*dst = &n
		}
	}

	if p.Fields() == 0 {
		return Patch{}, &ValidationError{
			Reason: fmt.Sprintf("no numeric %s, %s or %s field", FieldServerConnect, FieldTotalMessage, FieldTotalCommand),
		}
	}
	return p, nil
}

// Registry reads and updates the configuration record held in a cache store.
// It is safe for concurrent use.
type Registry struct {
	store *cache.Store[Config]
}

// New creates a Registry backed by st.
func New(st *cache.Store[Config]) *Registry {
	return &Registry{store: st}
}

// Read returns the stored configuration, or DefaultConfig if none is live.
func (r *Registry) Read() Config {
	if c, ok := r.store.Get(Key); ok {
		return c
	}
	return DefaultConfig()
}

// Peek is Read without counting as a cache lookup.
func (r *Registry) Peek() Config {
	if c, ok := r.store.Peek(Key); ok {
		return c
	}
	return DefaultConfig()
}

// Apply sanitizes patch and merges it onto the current configuration
// (stored, or DefaultConfig). The merged record is stored and returned.
// A rejected patch returns an error matching ErrRejected and leaves the
// store untouched.
func (r *Registry) Apply(patch any) (Config, error) {
	p, err := Sanitize(patch)
	if err != nil {
		return Config{}, err
	}
	return r.store.Update(Key, func(cur Config, found bool) Config {
		if !found {
			cur = DefaultConfig()
		}
		return p.ApplyTo(cur)
	}), nil
}

// toInt64 reports v as an int64 when it is an integral number.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	}
	return reflect.TypeOf(v).String()
}
