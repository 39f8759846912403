package scenario

import (
	"github.com/Shopify/go-lua"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

func (s *Session) matchNew(l *lua.State) int {
	sc := &Scenario{Name: lua.OptString(l, 1, "")}
	l.PushUserData(sc)
	lua.SetMetaTableNamed(l, matchTypeName)
	return 1
}

func checkMatch(l *lua.State) *Scenario {
	ud := lua.CheckUserData(l, 1, matchTypeName)
	if sc, ok := ud.(*Scenario); ok && sc != nil {
		return sc
	}
	lua.ArgumentError(l, 1, "match expected")
	return nil
}

func appendStep(sc *Scenario, kind string, args map[string]any) {
	if args == nil {
		args = map[string]any{}
	}
	sc.Steps = append(sc.Steps, Step{Kind: kind, Args: args})
}

func (s *Session) matchMethods() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "spawn", Function: matchSpawn},
		{Name: "spawn_weapon", Function: matchSpawnWeapon},
		{Name: "despawn", Function: matchHandleStep("despawn")},
		{Name: "start", Function: matchHandleStep("start")},
		{Name: "tick", Function: matchTick},
		{Name: "play", Function: matchPlay},
		{Name: "command", Function: matchCommand},
		{Name: "status", Function: matchStatus},
		{Name: "enter", Function: matchEnter},
		{Name: "color", Function: matchColor},
		{Name: "expect", Function: matchExpect},
	}
}

// match:spawn("mario", {entry = 0, color = 2}) returns a handle.
func matchSpawn(l *lua.State) int {
	sc := checkMatch(l)
	name := lua.CheckString(l, 2)
	opts := optionalTable(l, 3)
	sc.handles++
	appendStep(sc, "spawn", map[string]any{
		"handle":   sc.handles,
		"category": host.CategoryFighter,
		"name":     name,
		"entry":    intArg(opts, "entry"),
		"color":    intArg(opts, "color"),
	})
	l.PushInteger(sc.handles)
	return 1
}

// match:spawn_weapon("mario_fireball", owner) returns a handle.
func matchSpawnWeapon(l *lua.State) int {
	sc := checkMatch(l)
	name := lua.CheckString(l, 2)
	owner := checkHandle(l, sc, 3)
	sc.handles++
	appendStep(sc, "spawn", map[string]any{
		"handle":   sc.handles,
		"category": host.CategoryWeapon,
		"name":     name,
		"owner":    owner,
	})
	l.PushInteger(sc.handles)
	return 1
}

func matchHandleStep(kind string) lua.Function {
	return func(l *lua.State) int {
		sc := checkMatch(l)
		appendStep(sc, kind, map[string]any{"handle": checkHandle(l, sc, 2)})
		return 0
	}
}

func matchTick(l *lua.State) int {
	sc := checkMatch(l)
	count := lua.OptInteger(l, 2, 1)
	if count < 1 {
		lua.ArgumentError(l, 2, "tick count must be positive")
	}
	appendStep(sc, "tick", map[string]any{"count": count})
	return 0
}

func matchPlay(l *lua.State) int {
	sc := checkMatch(l)
	appendStep(sc, "play", map[string]any{
		"handle": checkHandle(l, sc, 2),
		"motion": lua.CheckString(l, 3),
	})
	return 0
}

// match:command(h, "sound") runs the sound script of h's animation.
func matchCommand(l *lua.State) int {
	sc := checkMatch(l)
	appendStep(sc, "command", map[string]any{
		"handle":   checkHandle(l, sc, 2),
		"category": checkCommandCategory(l, 3),
	})
	return 0
}

// match:status(h, 3, "main") runs one status line.
func matchStatus(l *lua.State) int {
	sc := checkMatch(l)
	appendStep(sc, "status", map[string]any{
		"handle": checkHandle(l, sc, 2),
		"status": lua.CheckInteger(l, 3),
		"line":   checkLine(l, 4),
	})
	return 0
}

// match:enter(h, 0) moves h into a status and runs its pre line.
func matchEnter(l *lua.State) int {
	sc := checkMatch(l)
	appendStep(sc, "enter", map[string]any{
		"handle": checkHandle(l, sc, 2),
		"status": lua.CheckInteger(l, 3),
	})
	return 0
}

func matchColor(l *lua.State) int {
	sc := checkMatch(l)
	appendStep(sc, "color", map[string]any{
		"handle": checkHandle(l, sc, 2),
		"color":  lua.CheckInteger(l, 3),
	})
	return 0
}

// match:expect({"F", "G"}) checks the marks recorded since the previous
// expect.
func matchExpect(l *lua.State) int {
	sc := checkMatch(l)
	lua.CheckType(l, 2, lua.TypeTable)
	n := l.RawLength(2)
	labels := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		l.RawGetInt(2, i)
		label, ok := l.ToString(-1)
		l.Pop(1)
		if !ok {
			lua.ArgumentError(l, 2, "expected labels must be strings")
		}
		labels = append(labels, label)
	}
	appendStep(sc, "expect", map[string]any{"labels": labels})
	return 0
}

func checkHandle(l *lua.State, sc *Scenario, index int) int {
	handle := lua.CheckInteger(l, index)
	if handle < 1 || handle > sc.handles {
		lua.ArgumentError(l, index, "unknown instance handle")
	}
	return handle
}

func optionalTable(l *lua.State, index int) map[string]any {
	if l.IsNoneOrNil(index) || l.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(l, index)
}

func tableToMap(l *lua.State, index int) map[string]any {
	output := map[string]any{}
	index = l.AbsIndex(index)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			output[key] = luaToGo(l, -1)
		}
		l.Pop(1)
	}
	return output
}

func luaToGo(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		if value == float64(int64(value)) {
			return int(value)
		}
		return value
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	default:
		return nil
	}
}

func intArg(args map[string]any, key string) int {
	if v, ok := args[key].(int); ok {
		return v
	}
	return 0
}
