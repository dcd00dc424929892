package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/navijation/njlob/lob"
	"github.com/urfave/cli/v3"
)

func getCmd(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: get store_dir hex_id")
	}
	storeDir, hexID := cmd.Args().Get(0), cmd.Args().Get(1)

	id, err := hex.DecodeString(hexID)
	if err != nil {
		return fmt.Errorf("invalid hex id: %w", err)
	}

	blocks, err := openBlockStore(storeDir)
	if err != nil {
		return err
	}
	defer blocks.Close()

	store := lob.New(blocks, lob.DefaultConfig())
	r, err := store.GetInputStream(id)
	if err != nil {
		return fmt.Errorf("failed to open id: %w", err)
	}
	defer r.Close()

	_, err = io.Copy(os.Stdout, r)
	return err
}
