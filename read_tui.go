//go:build !gui

package main

import (
	"context"

	"github.com/metcalfc/lector/internal/logger"
	"github.com/metcalfc/lector/internal/tui"
)

func (c *cli) present(ctx context.Context, rs readerSetup) error {
	return tui.Run(tui.Deps{
		Library:          rs.store,
		Engine:           rs.engine,
		Lookup:           rs.lookup,
		Saver:            rs.saver,
		Glossary:         rs.glossary,
		Log:              logger.Component(c.log, "tui"),
		App:              rs.app,
		Voice:            rs.voice,
		Language:         c.cfg.Language,
		ProgressInterval: c.cfg.ProgressInterval,
	}, rs.openID)
}
