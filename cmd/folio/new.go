package main

import (
	"fmt"
	"time"

	"folio/internal/config"
	"folio/internal/scaffold"
)

// NewCmd groups the scaffolding commands.
type NewCmd struct {
	Site NewSiteCmd `cmd:"" help:"Create a new site scaffold"`
	Post NewPostCmd `cmd:"" help:"Create a new post from the archetype"`
}

type NewSiteCmd struct {
	Name string `arg:"" help:"Directory of the new site"`
}

func (n *NewSiteCmd) Run() error {
	return scaffold.CreateNewSite(n.Name)
}

type NewPostCmd struct {
	Title string `arg:"" help:"Title of the new post"`
}

func (n *NewPostCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	path, err := scaffold.CreateNewPost(n.Title, cfg, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Edit %s, then run folio serve.\n", path)
	return nil
}
