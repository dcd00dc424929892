package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/navijation/njlob/storage/lobid"
	"github.com/urfave/cli/v3"
)

func dumpCmd(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: dump hex_id")
	}

	id, err := hex.DecodeString(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid hex id: %w", err)
	}

	out, err := lobid.PrettyPrint(id)
	if err != nil {
		return fmt.Errorf("failed to parse id: %w", err)
	}

	fmt.Println(out)
	return nil
}
