package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

func gcCmd(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gc store_dir")
	}
	storeDir := cmd.Args().Get(0)

	blocks, err := openBlockStore(storeDir)
	if err != nil {
		return err
	}
	defer blocks.Close()

	if err := blocks.GC(); err != nil {
		return fmt.Errorf("gc failed: %w", err)
	}

	fmt.Println("gc complete")
	return nil
}
