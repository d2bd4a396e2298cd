package api

// ChannelInfo describes one input or output channel of the loaded model.
type ChannelInfo struct {
	Index int    `json:"index"`
	Bytes uint64 `json:"bytes"`
	N     uint64 `json:"n"`
	C     uint64 `json:"c"`
	H     uint64 `json:"h"`
	W     uint64 `json:"w"`
	P     uint64 `json:"p"`
	R     uint64 `json:"r"`
}

// ModelInfo is the response for GET /v1/model.
type ModelInfo struct {
	Name        string        `json:"name"`
	PayloadSize uint64        `json:"payload_size"`
	TdSize      uint32        `json:"td_size"`
	TdCount     uint32        `json:"td_count"`
	Sources     []ChannelInfo `json:"sources"`
	Destinations []ChannelInfo `json:"destinations"`
}

// PredictRequest carries one job's input tensors. Byte slices travel as
// base64 strings on the wire. With Tiled set, inputs are dense NCHW
// tensors run through the tiling transform; otherwise they are raw channel
// bytes.
type PredictRequest struct {
	Inputs [][]byte `json:"inputs"`
	Tiled  bool     `json:"tiled"`
}

// PredictResponse carries the job's output tensors, one per destination
// channel.
type PredictResponse struct {
	ID      string   `json:"id"`
	Outputs [][]byte `json:"outputs"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
