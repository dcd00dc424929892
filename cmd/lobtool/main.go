package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "lobtool",
		Usage: "inspect and manipulate an on-disk LOB block store",
		Commands: []*cli.Command{
			{
				Name:      "put",
				Usage:     "store a file's contents, printing the resulting id in hex",
				Action:    putCmd,
				ArgsUsage: "store_dir file",
			},
			{
				Name:      "get",
				Usage:     "resolve a hex id back to its original bytes on stdout",
				Action:    getCmd,
				ArgsUsage: "store_dir hex_id",
			},
			{
				Name:      "dump",
				Usage:     "pretty-print a hex id's record structure",
				Action:    dumpCmd,
				ArgsUsage: "hex_id",
			},
			{
				Name:      "gc",
				Usage:     "compact a block store's sstables, dropping tombstoned entries",
				Action:    gcCmd,
				ArgsUsage: "store_dir",
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
