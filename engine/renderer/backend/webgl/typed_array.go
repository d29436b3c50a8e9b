//go:build js && wasm

package webgl

import (
	"syscall/js"

	"github.com/Carmen-Shannon/oxy-render/common"
)

func uint8Array(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	if len(data) > 0 {
		js.CopyBytesToJS(arr, data)
	}
	return arr
}

func float32Array(data []float32) js.Value {
	bytes := uint8Array(common.SliceToBytes(data))
	return js.Global().Get("Float32Array").New(bytes.Get("buffer"), 0, len(data))
}
