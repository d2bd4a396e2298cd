package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/anekit/pkg/ane"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List reachable accelerator devices",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			found := 0
			for id := 0; id < ane.MaxDevices; id++ {
				dev, err := ane.OpenDevice(id)
				if err != nil {
					continue
				}
				fmt.Printf("device %d: %s\n", id, dev.Node())
				found++
				_ = dev.Close()
			}
			if found == 0 {
				fmt.Println("no accelerator devices found")
			}
			return nil
		},
	}
}
