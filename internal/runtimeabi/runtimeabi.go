// Package runtimeabi names the C-ABI surface of the AetherScript runtime
// library (§6.4 "Runtime contract"): the external, already-compiled
// collection/IO/JSON/time/memory support functions that codegen emits
// calls against rather than implementing itself. Names and signatures
// mirror original_source/runtime/src/{collections,io,json,time}.rs's
// `#[no_mangle] pub extern "C" fn` surface one-for-one, so an object built
// from internal/codegen's output links against the real runtime unchanged.
package runtimeabi

import "aetherc/internal/types"

// Signature is a runtime symbol's C-ABI shape, described in terms of the
// compiler's own Kind enum rather than raw LLVM types, so callers can map
// it through the same types.Table.Primitive path codegen already uses for
// MIR locals.
type Signature struct {
	Symbol   string
	Params   []types.Kind
	Return   types.Kind
	Variadic bool
}

// Pointer-sized runtime handles (maps, file handles, JSON nodes, strings)
// are modeled at this ABI boundary as Integer — the runtime's own opaque
// *mut c_void/*mut AetherMap/*mut FileHandle pointers, round-tripped
// through codegen as machine words rather than given their own MIR type.
const handleKind = types.Integer

// Collections (original_source/runtime/src/collections.rs).
var (
	MapNew      = Signature{Symbol: "aether_collections_map_create", Params: []types.Kind{types.Integer, types.Integer}, Return: handleKind}
	MapDestroy  = Signature{Symbol: "aether_collections_map_destroy", Params: []types.Kind{handleKind}, Return: types.Void}
	MapInsert   = Signature{Symbol: "aether_collections_map_insert", Params: []types.Kind{handleKind, handleKind, handleKind}, Return: types.Void}
	MapGet      = Signature{Symbol: "aether_collections_map_get", Params: []types.Kind{handleKind, handleKind}, Return: handleKind}
	MapContains = Signature{Symbol: "aether_collections_map_contains", Params: []types.Kind{handleKind, handleKind}, Return: types.Boolean}
	MapRemove   = Signature{Symbol: "aether_collections_map_remove", Params: []types.Kind{handleKind, handleKind}, Return: types.Boolean}
	MapSize     = Signature{Symbol: "aether_collections_map_size", Params: []types.Kind{handleKind}, Return: types.Integer}
)

// I/O (original_source/runtime/src/io.rs).
var (
	OpenFile       = Signature{Symbol: "aether_open_file", Params: []types.Kind{handleKind, handleKind}, Return: handleKind}
	CloseFile      = Signature{Symbol: "aether_close_file", Params: []types.Kind{handleKind}, Return: types.Void}
	FileSize       = Signature{Symbol: "aether_file_size", Params: []types.Kind{handleKind}, Return: types.Integer}
	ReadFile       = Signature{Symbol: "aether_read_file", Params: []types.Kind{handleKind, handleKind, types.Integer}, Return: types.Integer}
	WriteFile      = Signature{Symbol: "aether_write_file", Params: []types.Kind{handleKind, handleKind, types.Integer}, Return: types.Integer}
	AllocateString = Signature{Symbol: "aether_allocate_string", Params: []types.Kind{types.Integer}, Return: handleKind}
	Print          = Signature{Symbol: "aether_print", Params: []types.Kind{handleKind}, Return: types.Void}
	PrintInt       = Signature{Symbol: "print_int", Params: []types.Kind{types.Integer}, Return: types.Void}
	ReadLine       = Signature{Symbol: "aether_read_line", Params: []types.Kind{handleKind}, Return: types.Integer}
)

// JSON (original_source/runtime/src/json.rs).
var (
	JSONCreateObject = Signature{Symbol: "create_object", Return: handleKind}
	JSONCreateArray  = Signature{Symbol: "create_array", Return: handleKind}
	JSONSetField     = Signature{Symbol: "json_set_field", Params: []types.Kind{handleKind, handleKind, handleKind}, Return: handleKind}
	JSONStringify    = Signature{Symbol: "stringify_json", Params: []types.Kind{handleKind}, Return: handleKind}
	JSONArrayPush    = Signature{Symbol: "json_array_push", Params: []types.Kind{handleKind, handleKind}, Return: handleKind}
	JSONArrayLength  = Signature{Symbol: "json_array_length", Params: []types.Kind{handleKind}, Return: types.Integer}
	JSONFromString   = Signature{Symbol: "from_string", Params: []types.Kind{handleKind}, Return: handleKind}
	JSONFromInteger  = Signature{Symbol: "from_integer", Params: []types.Kind{types.Integer}, Return: handleKind}
)

// Time (original_source/runtime/src/time.rs).
var (
	TimeNow               = Signature{Symbol: "aether_time_now", Return: types.Integer}
	TimestampToDatetime   = Signature{Symbol: "aether_timestamp_to_datetime", Params: []types.Kind{types.Integer, handleKind}, Return: types.Void}
	DatetimeToTimestamp   = Signature{Symbol: "aether_datetime_to_timestamp", Params: []types.Kind{handleKind}, Return: types.Integer}
	FormatDatetimeISO8601 = Signature{Symbol: "aether_format_datetime_iso8601", Params: []types.Kind{handleKind, handleKind}, Return: types.Void}
	ParseDatetimeISO8601  = Signature{Symbol: "aether_parse_datetime_iso8601", Params: []types.Kind{handleKind, handleKind}, Return: types.Boolean}
	SleepMs               = Signature{Symbol: "aether_sleep_ms", Params: []types.Kind{types.Integer}, Return: types.Void}
	Hrtime                = Signature{Symbol: "aether_hrtime", Return: types.Integer}
)

// Drop is the memory-management hook codegen calls when a Drop statement
// (§3.4, §4.2 "end-of-scope drops") retires an owned value of a type that
// requires cleanup; the runtime dispatches on a type-tag word since the
// MIR Drop statement itself carries no payload beyond the place being
// dropped.
var Drop = Signature{Symbol: "aether_rt_drop", Params: []types.Kind{handleKind, types.Integer}, Return: types.Void}

// All returns every runtime Signature this package names, keyed by symbol,
// for callers (codegen's extern-declaration pass, diagnostics dumps) that
// need the whole surface rather than one symbol at a time.
func All() map[string]Signature {
	out := make(map[string]Signature)
	for _, sig := range []Signature{
		MapNew, MapDestroy, MapInsert, MapGet, MapContains, MapRemove, MapSize,
		OpenFile, CloseFile, FileSize, ReadFile, WriteFile, AllocateString, Print, PrintInt, ReadLine,
		JSONCreateObject, JSONCreateArray, JSONSetField, JSONStringify, JSONArrayPush, JSONArrayLength, JSONFromString, JSONFromInteger,
		TimeNow, TimestampToDatetime, DatetimeToTimestamp, FormatDatetimeISO8601, ParseDatetimeISO8601, SleepMs, Hrtime,
		Drop,
	} {
		out[sig.Symbol] = sig
	}
	return out
}
