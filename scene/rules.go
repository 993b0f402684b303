package scene

import (
	"encoding/json"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
)

// The script must define classify(symbol, x, y) returning a placement map
// or undefined to keep the legend entry.
const classifyDispatch = `
__result = classify(__symbol, __x, __y)
`

// Rules overrides legend placements with a tengo script. A Rules value is
// not safe for concurrent use.
type Rules struct {
	name     string
	compiled *tengo.Compiled
}

// LoadRules compiles a script from the level rules directory.
func LoadRules(name string) (*Rules, error) {
	src, err := levels.LoadScript(name)
	if err != nil {
		return nil, err
	}
	return CompileRules(name, src)
}

func CompileRules(name string, src []byte) (*Rules, error) {
	script := tengo.NewScript(append(append([]byte(nil), src...), classifyDispatch...))
	_ = script.Add("__symbol", "")
	_ = script.Add("__x", 0)
	_ = script.Add("__y", 0)
	_ = script.Add("__result", nil)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scene: compile rules %s: %w", name, err)
	}
	return &Rules{name: name, compiled: compiled}, nil
}

func (r *Rules) Name() string {
	return r.name
}

// Classify runs the script for one layout cell. ok is false when the
// script leaves the cell to the legend.
func (r *Rules) Classify(symbol string, c grid.Coord) (p levels.Placement, ok bool, err error) {
	if err := r.compiled.Set("__symbol", symbol); err != nil {
		return p, false, err
	}
	if err := r.compiled.Set("__x", c.X); err != nil {
		return p, false, err
	}
	if err := r.compiled.Set("__y", c.Y); err != nil {
		return p, false, err
	}
	if err := r.compiled.Set("__result", nil); err != nil {
		return p, false, err
	}
	if err := r.compiled.Run(); err != nil {
		return p, false, fmt.Errorf("scene: rules %s at %v: %w", r.name, c, err)
	}

	out := r.compiled.Get("__result").Map()
	if out == nil {
		return p, false, nil
	}
	// The map already has the placement's JSON shape.
	data, err := json.Marshal(out)
	if err != nil {
		return p, false, fmt.Errorf("scene: rules %s at %v: %w", r.name, c, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false, fmt.Errorf("scene: rules %s at %v: %w", r.name, c, err)
	}
	if err := p.Validate(); err != nil {
		return p, false, fmt.Errorf("scene: rules %s at %v: %w", r.name, c, err)
	}
	return p, true, nil
}
