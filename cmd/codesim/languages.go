package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/internal/output"
	"github.com/panbanda/codesim/pkg/engine"
)

func languagesCmd() *cli.Command {
	return &cli.Command{
		Name:   "languages",
		Usage:  "List supported languages and how each is compared",
		Action: runLanguagesCmd,
	}
}

func runLanguagesCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	e := engine.New(engine.WithConfig(cfg))
	return formatter.Output(output.LanguagesDocument(e.Breakdown()))
}
