package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/aegis/pkg/dataset"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// ScriptError is returned when a Starlark model cannot be loaded or run.
type ScriptError struct {
	File    string
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Starlark is a model defined by a Starlark script.
//
// The script must define a global list of strings named features and a
// function predict(row) where row is a dict of feature name to value:
//
//	features = ["income", "credit_score"]
//
//	def predict(row):
//	    return 1 if row["credit_score"] >= 640 else 0
//
// The math and struct modules are predeclared.
type Starlark struct {
	name     string
	path     string
	features []string
	predict  starlark.Callable
	logger   *slog.Logger
}

// LoadStarlark reads and executes the script at path.
func LoadStarlark(path, name string, logger *slog.Logger) (*Starlark, error) {
	if path == "" {
		return nil, fmt.Errorf("starlark model needs a script path")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScriptError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return compileStarlark(path, name, src, logger)
}

// ParseStarlark builds a model from script source. filename is used in
// error messages only.
func ParseStarlark(filename string, src []byte, logger *slog.Logger) (*Starlark, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return compileStarlark(filename, name, src, logger)
}

func compileStarlark(path, name string, src []byte, logger *slog.Logger) (*Starlark, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	thread := newThread("load:"+name, logger)
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, src, predeclared())
	if err != nil {
		return nil, &ScriptError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	fn, ok := globals["predict"].(starlark.Callable)
	if !ok {
		return nil, &ScriptError{File: path, Message: "script must define predict(row)"}
	}

	raw, ok := globals["features"]
	if !ok {
		return nil, &ScriptError{File: path, Message: "script must define features"}
	}
	goFeatures, err := toGo(raw)
	if err != nil {
		return nil, &ScriptError{File: path, Message: fmt.Sprintf("features: %v", err)}
	}
	list, ok := goFeatures.([]any)
	if !ok || len(list) == 0 {
		return nil, &ScriptError{File: path, Message: "features must be a non-empty list of column names"}
	}
	features := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &ScriptError{File: path, Message: fmt.Sprintf("features[%d] is %T, want string", i, item)}
		}
		features[i] = s
	}

	return &Starlark{
		name:     name,
		path:     path,
		features: features,
		predict:  fn,
		logger:   logger,
	}, nil
}

// Name returns the model name.
func (m *Starlark) Name() string { return m.name }

// Features returns the columns the script declares.
func (m *Starlark) Features() []string { return slices.Clone(m.features) }

// Predict calls predict(row) once per row. Canceling ctx interrupts the
// script.
func (m *Starlark) Predict(ctx context.Context, f *dataset.Frame) ([]dataset.Value, error) {
	cols := make([][]dataset.Value, len(m.features))
	for i, name := range m.features {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	thread := newThread("predict:"+m.name, m.logger)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	out := make([]dataset.Value, f.RowCount())
	for row := range out {
		dict := starlark.NewDict(len(m.features))
		for i, name := range m.features {
			sv, err := toStarlark(cols[i][row].Any())
			if err != nil {
				return nil, fmt.Errorf("row %d feature %q: %w", row, name, err)
			}
			if err := dict.SetKey(starlark.String(name), sv); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}

		res, err := starlark.Call(thread, m.predict, starlark.Tuple{dict}, nil)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &ScriptError{File: m.path, Message: fmt.Sprintf("predict failed on row %d: %v", row, err)}
		}
		gv, err := toGo(res)
		if err != nil {
			return nil, &ScriptError{File: m.path, Message: fmt.Sprintf("row %d: %v", row, err)}
		}
		v, err := dataset.Of(gv)
		if err != nil {
			return nil, &ScriptError{File: m.path, Message: fmt.Sprintf("row %d: predict returned %s", row, res.Type())}
		}
		out[row] = v
	}

	m.logger.Debug("starlark model predicted", "model", m.name, "rows", len(out))
	return out, nil
}

func newThread(name string, logger *slog.Logger) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			logger.Debug("starlark print", "thread", t.Name, "msg", msg)
		},
	}
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"math":   starlarkmath.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
}

// toStarlark converts a scalar cell value to Starlark.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// toGo converts a Starlark value back to Go.
// Returns: string, int64, float64, bool, []any, or nil.
func toGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", val)
		}
		return i64, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case starlark.Tuple:
		result := make([]any, len(val))
		for i, item := range val {
			gv, err := toGo(item)
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
