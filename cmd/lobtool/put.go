package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/navijation/njlob/lob"
	"github.com/navijation/njlob/storage/blockstore"
	"github.com/urfave/cli/v3"
)

func putCmd(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: put store_dir file")
	}
	storeDir, path := cmd.Args().Get(0), cmd.Args().Get(1)

	blocks, err := openBlockStore(storeDir)
	if err != nil {
		return err
	}
	defer blocks.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	store := lob.New(blocks, lob.DefaultConfig())
	id, err := store.Put(f)
	if err != nil {
		return fmt.Errorf("put failed: %w", err)
	}

	fmt.Println(hex.EncodeToString(id))
	return nil
}

func openBlockStore(dir string) (*blockstore.Store, error) {
	create := false
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		create = true
	}
	return blockstore.Open(blockstore.OpenArgs{Path: dir, Create: create})
}
