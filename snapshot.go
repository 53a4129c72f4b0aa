package calc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/govalues/decimal"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Snapshot is the persistent form of an environment.
type Snapshot struct {
	RequestHistory []HistoryEntry `json:"request_history"`
	Variables      []Variable     `json:"variables"`
	Constants      []Variable     `json:"constants"`
	Config         Limits         `json:"config"`
}

type jsonVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MarshalJSON encodes the variable as {"name": name, "value": "decimal"}.
func (v Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVariable{Name: v.Name, Value: v.Value.String()})
}

func (v *Variable) UnmarshalJSON(b []byte) error {
	var j jsonVariable
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	d, err := decimal.Parse(j.Value)
	if err != nil {
		return fmt.Errorf("calc: bad value for variable %q: %w", j.Name, err)
	}
	*v = Variable{Name: j.Name, Value: d}
	return nil
}

// jsonResult is the tagged form of a history result. Exactly one field is
// set.
type jsonResult struct {
	Ok  *string `json:"Ok,omitempty"`
	Err *Error  `json:"Err,omitempty"`
}

type jsonEntry struct {
	Input  string     `json:"input"`
	Result jsonResult `json:"result"`
}

// MarshalJSON encodes the entry as {"input": line, "result": {"Ok": "decimal"}}
// or {"input": line, "result": {"Err": error}}. Errors which are not *Error
// are written as UnknownError.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	j := jsonEntry{Input: h.Input}
	v, err := h.Result.Get()
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = newError(UnknownError)
		}
		j.Result.Err = e
	} else {
		s := v.String()
		j.Result.Ok = &s
	}
	return json.Marshal(j)
}

func (h *HistoryEntry) UnmarshalJSON(b []byte) error {
	var j jsonEntry
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	switch {
	case j.Result.Ok != nil && j.Result.Err == nil:
		d, err := decimal.Parse(*j.Result.Ok)
		if err != nil {
			return fmt.Errorf("calc: bad result for %q: %w", j.Input, err)
		}
		*h = HistoryEntry{Input: j.Input, Result: mo.Ok(d)}
	case j.Result.Err != nil && j.Result.Ok == nil:
		*h = HistoryEntry{Input: j.Input, Result: mo.Err[decimal.Decimal](j.Result.Err)}
	default:
		return fmt.Errorf("calc: result for %q must be exactly one of Ok or Err", j.Input)
	}
	return nil
}

// Snapshot captures the environment's collections.
func (env *Env) Snapshot() Snapshot {
	return Snapshot{
		RequestHistory: env.History(),
		Variables:      env.Variables(),
		Constants:      env.Constants(),
		Config:         env.limits,
	}
}

// Restore creates an environment from a snapshot. The variables and history
// come from the snapshot, keeping the newest ones if there are more than the
// limits allow. Variables named like constants are dropped. The constants and
// limits are not read from the snapshot; limits are set with options as for
// NewEnv.
//
// Restored history is never used as a cached result.
func Restore(s Snapshot, opts ...EnvOption) *Env {
	env := NewEnv(opts...)
	vars := lo.Filter(s.Variables, func(v Variable, _ int) bool {
		return !env.IsConstant(v.Name)
	})
	for _, v := range vars {
		// Assign can only fail for constants, which are filtered.
		_ = env.Assign(v.Name, v.Value)
	}
	for _, h := range s.RequestHistory {
		h.gen = 0
		env.history = appendBounded(env.history, h, env.limits.MaxSizeHistory)
	}
	return env
}

// SaveFile writes a snapshot of the environment to a file. The file is
// replaced atomically, so a failed save leaves any previous snapshot intact.
func (env *Env) SaveFile(path string) error {
	b, err := json.MarshalIndent(env.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("calc: encoding snapshot: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("calc: saving snapshot: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("calc: saving snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("calc: saving snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("calc: saving snapshot: %w", err)
	}
	return nil
}

// LoadFile restores an environment from a snapshot file. If the file does not
// exist, the error satisfies errors.Is(err, fs.ErrNotExist).
func LoadFile(path string, opts ...EnvOption) (*Env, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calc: loading snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("calc: decoding snapshot %s: %w", path, err)
	}
	return Restore(s, opts...), nil
}
