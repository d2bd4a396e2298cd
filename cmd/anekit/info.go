package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/anekit/pkg/anec"
)

type channelDump struct {
	Channel   int       `json:"channel"`
	Kind      string    `json:"kind"`
	TileUnits uint32    `json:"tile_units"`
	Bytes     uint64    `json:"bytes"`
	NCHW      [6]uint64 `json:"nchw,omitempty"`
}

type modelDump struct {
	Path        string        `json:"path"`
	PayloadSize uint64        `json:"payload_size"`
	TskSize     uint64        `json:"tsk_size"`
	KrnSize     uint64        `json:"krn_size"`
	TdSize      uint32        `json:"td_size"`
	TdCount     uint32        `json:"td_count"`
	SrcCount    uint32        `json:"src_count"`
	DstCount    uint32        `json:"dst_count"`
	Channels    []channelDump `json:"channels"`
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Dump a compiled model's descriptor as JSON",
		ArgsUsage: "<model.anec>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("usage: anekit info <model.anec>")
			}
			m, err := anec.Load(path)
			if err != nil {
				return err
			}

			h := &m.Header
			dump := modelDump{
				Path:        path,
				PayloadSize: h.Size,
				TskSize:     h.TskSize,
				KrnSize:     h.KrnSize,
				TdSize:      h.TdSize,
				TdCount:     h.TdCount,
				SrcCount:    h.SrcCount,
				DstCount:    h.DstCount,
			}
			for bdx := 0; bdx < anec.TileCount; bdx++ {
				if h.Tiles[bdx] == 0 {
					continue
				}
				dump.Channels = append(dump.Channels, channelDump{
					Channel:   bdx,
					Kind:      channelKind(h, bdx),
					TileUnits: h.Tiles[bdx],
					Bytes:     h.TileBytes(bdx),
					NCHW:      h.NCHW[bdx],
				})
			}

			out, err := json.MarshalIndent(dump, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}
}

func channelKind(h *anec.Header, bdx int) string {
	switch {
	case bdx < anec.ReservedChannels:
		return "reserved"
	case bdx < anec.ReservedChannels+int(h.DstCount):
		return "dst"
	case bdx < anec.ReservedChannels+int(h.DstCount)+int(h.SrcCount):
		return "src"
	default:
		return "unused"
	}
}
