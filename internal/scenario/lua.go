package scenario

import (
	"math"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/slotted/internal/slotted/agent"
	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/variant"
)

const (
	matchTypeName   = "match"
	builderTypeName = "variant_builder"
	hooksKey        = "slotted.hooks"
)

type luaBuilder struct {
	b *agent.Builder
}

func (s *Session) registerTypes() {
	l := s.state

	l.NewTable()
	l.SetField(lua.RegistryIndex, hooksKey)

	lua.NewMetaTable(l, matchTypeName)
	l.NewTable()
	lua.SetFunctions(l, s.matchMethods(), 0)
	l.SetField(-2, "__index")
	l.Pop(1)

	lua.NewMetaTable(l, builderTypeName)
	l.NewTable()
	lua.SetFunctions(l, s.builderMethods(), 0)
	l.SetField(-2, "__index")
	l.Pop(1)

	s.global("Match", []lua.RegistryFunction{
		{Name: "new", Function: s.matchNew},
	})
	s.global("Fighter", []lua.RegistryFunction{
		{Name: "new", Function: s.fighterNew},
		{Name: "mask", Function: s.fighterMask},
	})
	s.global("Weapon", []lua.RegistryFunction{
		{Name: "new", Function: s.weaponNew},
		{Name: "cloned", Function: s.weaponCloned},
	})
	s.global("Kind", []lua.RegistryFunction{
		{Name: "fighter", Function: s.kindDeclare(host.CategoryFighter)},
		{Name: "weapon", Function: s.kindDeclare(host.CategoryWeapon)},
		{Name: "original_status", Function: s.kindOriginalStatus},
	})
	l.PushGoFunction(s.luaMark)
	l.SetGlobal("mark")
}

func (s *Session) global(name string, functions []lua.RegistryFunction) {
	s.state.NewTable()
	lua.SetFunctions(s.state, functions, 0)
	s.state.SetGlobal(name)
}

// Kind

func (s *Session) kindDeclare(category host.Category) lua.Function {
	return func(l *lua.State) int {
		name := lua.CheckString(l, 1)
		kind := s.engine.DeclareKind(category, name)
		l.PushString(kind.String())
		return 1
	}
}

func (s *Session) kindOriginalStatus(l *lua.State) int {
	category := checkCategory(l, 1)
	name := lua.CheckString(l, 2)
	status := lua.CheckInteger(l, 3)
	line := checkLine(l, 4)
	ref := s.storeHook(l, 5)
	kind := host.Hash(host.KindName(category, name))
	s.engine.SetOriginalStatus(kind, int32(status), line, s.statusHook(ref))
	return 0
}

func (s *Session) luaMark(l *lua.State) int {
	s.mark(lua.CheckString(l, 1))
	return 0
}

// Builders

func (s *Session) fighterNew(l *lua.State) int {
	return s.pushBuilder(l, agent.NewFighter(s.rt, lua.CheckString(l, 1), checkColors(l, 2)...))
}

func (s *Session) fighterMask(l *lua.State) int {
	var mask [variant.LegacyMaskSize]bool
	for _, id := range checkColors(l, 2) {
		if id >= 0 && id < variant.LegacyMaskSize {
			mask[id] = true
		}
	}
	return s.pushBuilder(l, agent.NewFighterMask(s.rt, lua.CheckString(l, 1), &mask))
}

func (s *Session) weaponNew(l *lua.State) int {
	return s.pushBuilder(l, agent.NewWeapon(s.rt, lua.CheckString(l, 1), checkColors(l, 2)...))
}

func (s *Session) weaponCloned(l *lua.State) int {
	return s.pushBuilder(l, agent.NewClonedWeapon(s.rt, lua.CheckString(l, 1), checkColors(l, 2)...))
}

func (s *Session) pushBuilder(l *lua.State, b *agent.Builder) int {
	s.builders = append(s.builders, b)
	l.PushUserData(&luaBuilder{b: b})
	lua.SetMetaTableNamed(l, builderTypeName)
	return 1
}

func checkBuilder(l *lua.State) *agent.Builder {
	ud := lua.CheckUserData(l, 1, builderTypeName)
	if lb, ok := ud.(*luaBuilder); ok && lb != nil && lb.b != nil {
		return lb.b
	}
	lua.ArgumentError(l, 1, "variant builder expected")
	return nil
}

func (s *Session) builderMethods() []lua.RegistryFunction {
	command := func(add func(*agent.Builder, string, host.CommandHook) *agent.Builder) lua.Function {
		return func(l *lua.State) int {
			b := checkBuilder(l)
			name := lua.CheckString(l, 2)
			add(b, name, s.commandHook(s.storeHook(l, 3)))
			l.SetTop(1)
			return 1
		}
	}
	status := func(add func(*agent.Builder, host.StatusLine, int32, host.StatusHook) *agent.Builder) lua.Function {
		return func(l *lua.State) int {
			b := checkBuilder(l)
			line := checkLine(l, 2)
			kind := lua.CheckInteger(l, 3)
			add(b, line, int32(kind), s.statusHook(s.storeHook(l, 4)))
			l.SetTop(1)
			return 1
		}
	}
	return []lua.RegistryFunction{
		{Name: "game", Function: command((*agent.Builder).Game)},
		{Name: "effect", Function: command((*agent.Builder).Effect)},
		{Name: "sound", Function: command((*agent.Builder).Sound)},
		{Name: "expression", Function: command((*agent.Builder).Expression)},
		{Name: "command", Function: command((*agent.Builder).Command)},
		{Name: "status", Function: status((*agent.Builder).SlottedStatus)},
		{Name: "plain_status", Function: status((*agent.Builder).Status)},
		{Name: "frame", Function: func(l *lua.State) int {
			b := checkBuilder(l)
			b.Frame(s.commandHook(s.storeHook(l, 2)))
			l.SetTop(1)
			return 1
		}},
		{Name: "on_start", Function: func(l *lua.State) int {
			b := checkBuilder(l)
			b.OnStart(s.commandHook(s.storeHook(l, 2)))
			l.SetTop(1)
			return 1
		}},
		{Name: "kind", Function: func(l *lua.State) int {
			l.PushString(checkBuilder(l).Kind().String())
			return 1
		}},
	}
}

// Hooks

// storeHook saves the function at index in the hook table and returns its
// reference.
func (s *Session) storeHook(l *lua.State, index int) int {
	lua.CheckType(l, index, lua.TypeFunction)
	s.nextHook++
	ref := s.nextHook
	l.Field(lua.RegistryIndex, hooksKey)
	l.PushValue(index)
	l.RawSetInt(-2, ref)
	l.Pop(1)
	return ref
}

func (s *Session) commandHook(ref int) func(host.Agent) {
	return func(a host.Agent) {
		s.call(ref, a, 0)
	}
}

func (s *Session) statusHook(ref int) host.StatusHook {
	return func(a host.Agent) int64 {
		return s.call(ref, a, 1)
	}
}

// call runs hook ref with an agent table argument. Lua errors are collected
// and surface from the step that triggered the hook.
func (s *Session) call(ref int, a host.Agent, results int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.current
	s.current = a
	defer func() { s.current = previous }()

	l := s.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, hooksKey)
	l.RawGetInt(-1, ref)
	l.Remove(-2)
	s.pushAgent(l, a)
	if err := l.ProtectedCall(1, results, 0); err != nil {
		s.hookErrs = append(s.hookErrs, err)
		return 0
	}
	if results == 0 {
		return 0
	}
	value, _ := l.ToInteger(-1)
	return int64(value)
}

func (s *Session) pushAgent(l *lua.State, a host.Agent) {
	l.NewTable()
	l.PushInteger(int(a.ObjectID()))
	l.SetField(-2, "object_id")
	l.PushString(a.Category().String())
	l.SetField(-2, "category")
	l.PushString(a.Kind().String())
	l.SetField(-2, "kind")
	l.PushInteger(int(a.Value(host.ValueEntryID)))
	l.SetField(-2, "entry")
	l.PushInteger(int(a.Value(host.ValueColor)))
	l.SetField(-2, "color")
	index, ok := s.rt.VariantIndex(a)
	if !ok {
		index = -1
	}
	l.PushInteger(index)
	l.SetField(-2, "variant")
}

// Argument helpers

func checkColors(l *lua.State, index int) []int {
	if l.TypeOf(index) == lua.TypeNumber {
		return []int{lua.CheckInteger(l, index)}
	}
	lua.CheckType(l, index, lua.TypeTable)
	n := l.RawLength(index)
	colors := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		l.RawGetInt(index, i)
		value, ok := l.ToNumber(-1)
		l.Pop(1)
		if !ok || math.Mod(value, 1) != 0 {
			lua.ArgumentError(l, index, "color ids must be integers")
			return nil
		}
		colors = append(colors, int(value))
	}
	return colors
}

func checkLine(l *lua.State, index int) host.StatusLine {
	line, ok := host.ParseStatusLine(lua.CheckString(l, index))
	if !ok {
		lua.ArgumentError(l, index, "unknown status line")
	}
	return line
}

func checkCategory(l *lua.State, index int) host.Category {
	switch lua.CheckString(l, index) {
	case "fighter":
		return host.CategoryFighter
	case "weapon":
		return host.CategoryWeapon
	default:
		lua.ArgumentError(l, index, "category must be fighter or weapon")
		return 0
	}
}

func checkCommandCategory(l *lua.State, index int) host.CommandCategory {
	name := lua.CheckString(l, index)
	for _, category := range host.CommandCategories {
		if category.Prefix() == name {
			return category
		}
	}
	lua.ArgumentError(l, index, "unknown command category")
	return 0
}
