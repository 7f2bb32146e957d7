package modules

import (
	"time"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/headsetd/internal/kv"
)

// KVModule gives hook scripts state that survives restarts.
//
//	local kv = require("kv")
//	kv.set("last_low", ev.level, 3600)
//	local last = kv.get("last_low")
type KVModule struct {
	store *kv.Store
}

// NewKVModule creates a new KV module.
func NewKVModule(store *kv.Store) *KVModule {
	return &KVModule{store: store}
}

// Loader is the module loader for Lua.
func (m *KVModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "set", L.NewFunction(m.set))
	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "delete", L.NewFunction(m.delete))
	L.SetField(mod, "keys", L.NewFunction(m.keys))

	L.Push(mod)
	return 1
}

// set(key, value, ttl_seconds?) -> bool
func (m *KVModule) set(L *lua.LState) int {
	key := L.CheckString(1)
	value := LuaToGo(L.CheckAny(2))
	ttl := time.Duration(L.OptNumber(3, 0) * lua.LNumber(time.Second))

	if err := m.store.Set(key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kv.set failed")
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// get(key) -> value or nil
func (m *KVModule) get(L *lua.LState) int {
	key := L.CheckString(1)

	value, err := m.store.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kv.get failed")
		L.Push(lua.LNil)
		return 1
	}
	L.Push(GoToLuaValue(L, value))
	return 1
}

// delete(key) -> bool
func (m *KVModule) delete(L *lua.LState) int {
	key := L.CheckString(1)

	deleted, err := m.store.Delete(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kv.delete failed")
	}
	L.Push(lua.LBool(deleted))
	return 1
}

// keys() -> table
func (m *KVModule) keys(L *lua.LState) int {
	keys, err := m.store.Keys()
	if err != nil {
		log.Warn().Err(err).Msg("kv.keys failed")
	}

	tbl := L.NewTable()
	for i, k := range keys {
		tbl.RawSetInt(i+1, lua.LString(k))
	}
	L.Push(tbl)
	return 1
}
