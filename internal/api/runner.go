package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/samcharles93/anekit/pkg/ane"
	"github.com/samcharles93/anekit/pkg/anec"
	"github.com/samcharles93/anekit/pkg/tile"
)

type tileShape = tile.Shape

// Runner executes jobs against a loaded model. The server only depends on
// this interface so tests can inject a stub.
type Runner interface {
	Describe() ModelInfo
	Predict(ctx context.Context, inputs [][]byte, tiled bool) ([][]byte, error)
}

// jobRunner drives one attached job instance. Job instances are not safe
// for concurrent use, so requests are serialized here.
type jobRunner struct {
	mu    sync.Mutex
	name  string
	model *anec.Model
	nn    *ane.NN
}

// NewJobRunner wraps an attached job instance for serving. The runner does
// not take ownership of the instance or the model.
func NewJobRunner(name string, model *anec.Model, nn *ane.NN) Runner {
	return &jobRunner{name: name, model: model, nn: nn}
}

func (r *jobRunner) Describe() ModelInfo {
	info := ModelInfo{
		Name:        r.name,
		PayloadSize: r.model.Header.Size,
		TdSize:      r.model.Header.TdSize,
		TdCount:     r.model.Header.TdCount,
	}
	for j := 0; j < r.nn.SrcCount(); j++ {
		info.Sources = append(info.Sources, r.channelInfo(j, r.nn.SrcSize, r.nn.SrcShape))
	}
	for i := 0; i < r.nn.DstCount(); i++ {
		info.Destinations = append(info.Destinations, r.channelInfo(i, r.nn.DstSize, r.nn.DstShape))
	}
	return info
}

func (r *jobRunner) channelInfo(idx int,
	size func(int) (uint64, error),
	shape func(int) (tileShape, error),
) ChannelInfo {
	ci := ChannelInfo{Index: idx}
	if n, err := size(idx); err == nil {
		ci.Bytes = n
	}
	if s, err := shape(idx); err == nil {
		ci.N, ci.C, ci.H, ci.W, ci.P, ci.R = s.N, s.C, s.H, s.W, s.P, s.R
	}
	return ci
}

func (r *jobRunner) Predict(ctx context.Context, inputs [][]byte, tiled bool) ([][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(inputs) != r.nn.SrcCount() {
		return nil, fmt.Errorf("got %d inputs, model takes %d", len(inputs), r.nn.SrcCount())
	}

	for j, in := range inputs {
		var err error
		if tiled {
			err = r.nn.SendTiled(j, in)
		} else {
			err = r.nn.Send(j, in)
		}
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", j, err)
		}
	}

	if err := r.nn.ExecContext(ctx); err != nil {
		return nil, err
	}

	outputs := make([][]byte, r.nn.DstCount())
	for i := range outputs {
		if tiled {
			s, err := r.nn.DstShape(i)
			if err != nil {
				return nil, err
			}
			outputs[i] = make([]byte, s.DenseBytes())
			if err := r.nn.ReadTiled(i, outputs[i]); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
			continue
		}
		n, err := r.nn.DstSize(i)
		if err != nil {
			return nil, err
		}
		outputs[i] = make([]byte, n)
		if err := r.nn.Read(i, outputs[i]); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}
	return outputs, nil
}
