package reactive

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	jsoniter "github.com/json-iterator/go"
)

var celJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// NewExprPredicate compiles a CEL expression into a Predicate usable with
// Search, RunMatching, Contains, and FindFirst. The expression sees:
//
//	id        string form of the entity id
//	unique_id the entity's unique id
//	json      the entity serialized to JSON and re-parsed (maps/lists/values)
//	now_ms    current time in Unix milliseconds
//
// An empty expression matches every entity. Entities that fail to serialize
// or whose evaluation errors do not match.
func NewExprPredicate[K cmp.Ordered, T Entity[K, T]](expr string) (Predicate[T], error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(T) bool { return true }, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("unique_id", cel.StringType),
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return func(e T) bool {
		b, err := celJSON.Marshal(e)
		if err != nil {
			return false
		}
		var obj any
		_ = celJSON.Unmarshal(b, &obj)
		out, _, err := prog.Eval(map[string]any{
			"id":        fmt.Sprint(e.ID()),
			"unique_id": e.UniqueID(),
			"json":      obj,
			"now_ms":    time.Now().UnixMilli(),
		})
		if err != nil {
			return false
		}
		ok, isBool := out.Value().(bool)
		return isBool && ok
	}, nil
}
