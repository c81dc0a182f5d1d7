//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/nzcvm/nzcvm-webapp/internal/engine"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	nzcvmEngine := js.Global().Get("Object").New()

	// --- Commands (map page → engine) ---
	nzcvmEngine.Set("loadConfig", js.FuncOf(loadConfig))
	nzcvmEngine.Set("setOrigin", js.FuncOf(setOrigin))
	nzcvmEngine.Set("setExtents", js.FuncOf(setExtents))
	nzcvmEngine.Set("setRotation", js.FuncOf(setRotation))
	nzcvmEngine.Set("setBounds", js.FuncOf(setBounds))
	nzcvmEngine.Set("setGrid", js.FuncOf(setGrid))
	nzcvmEngine.Set("setModelVersion", js.FuncOf(setModelVersion))
	nzcvmEngine.Set("setMinVS", js.FuncOf(setMinVS))
	nzcvmEngine.Set("setTopoType", js.FuncOf(setTopoType))
	nzcvmEngine.Set("setOutputDir", js.FuncOf(setOutputDir))
	nzcvmEngine.Set("pointerDown", js.FuncOf(pointerDown))
	nzcvmEngine.Set("pointerMove", js.FuncOf(pointerMove))
	nzcvmEngine.Set("pointerUp", js.FuncOf(pointerUp))

	// --- Queries (map page ← engine) ---
	nzcvmEngine.Set("getState", js.FuncOf(getState))
	nzcvmEngine.Set("hitTest", js.FuncOf(hitTest))
	nzcvmEngine.Set("getConfigText", js.FuncOf(getConfigText))
	nzcvmEngine.Set("getConfigJSON", js.FuncOf(getConfigJSON))
	nzcvmEngine.Set("isDragging", js.FuncOf(isDragging))

	// Register on global scope
	js.Global().Set("nzcvmEngine", nzcvmEngine)

	// Signal that WASM is ready
	js.Global().Set("nzcvmWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

// loadConfig accepts either the JSON record or KEY=VALUE text.
func loadConfig(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("configuration")
	}
	data := args[0].String()

	var rec vmconfig.Record
	var err error
	if strings.HasPrefix(strings.TrimSpace(data), "{") {
		rec, err = vmconfig.DecodeJSON(strings.NewReader(data))
	} else {
		rec, err = vmconfig.Parse(strings.NewReader(data))
	}
	if err != nil {
		return result(err)
	}
	return result(eng.LoadRecord(rec))
}

func setOrigin(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("lat, lng")
	}
	return result(eng.SetOrigin(args[0].Float(), args[1].Float()))
}

func setExtents(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("extentX, extentY")
	}
	return result(eng.SetExtents(args[0].Float(), args[1].Float()))
}

func setRotation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("rotation")
	}
	return result(eng.SetRotation(args[0].Float()))
}

func setBounds(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("swLat, swLng, neLat, neLng")
	}
	return result(eng.SetBounds(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float()))
}

func setGrid(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("grid JSON")
	}
	var p engine.GridParams
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return result(err)
	}
	eng.SetGrid(p)
	return result(nil)
}

func setModelVersion(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("model version")
	}
	eng.SetModelVersion(args[0].String())
	return result(nil)
}

func setMinVS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("min VS")
	}
	eng.SetMinVS(args[0].Float())
	return result(nil)
}

func setTopoType(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("topography type")
	}
	return result(eng.SetTopoType(args[0].String()))
}

func setOutputDir(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("output dir")
	}
	eng.SetOutputDir(args[0].String())
	return result(nil)
}

// pointerDown(kind, handle, lat, lng). An empty kind picks the gesture from
// the handle.
func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("kind, handle, lat, lng")
	}
	return result(eng.PointerDown(args[0].String(), args[1].String(), args[2].Float(), args[3].Float()))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.PointerMove(args[0].Float(), args[1].Float()))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp()
	return nil
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float(), args[2].Float()))
}

func getConfigText(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ConfigText())
}

func getConfigJSON(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ConfigJSON())
}

func isDragging(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Dragging())
}
