package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/modelstore"
)

func modelCommand(openStore storeOpener) *cli.Command {
	withStore := func(fn func(*cli.Context, modelstore.ArtifactStore) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			store, closeStore, err := openStore(c.Context, c.String("database-url"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer closeStore()
			return fn(c, store)
		}
	}

	return &cli.Command{
		Name:  "model",
		Usage: "manage model artifacts in the registry",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "add an artifact file as a new version",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "artifact JSON file", Required: true},
					&cli.BoolFlag{Name: "activate", Usage: "make the new version active"},
				},
				Action: withStore(runImport),
			},
			{
				Name:   "list",
				Usage:  "list every artifact version",
				Action: withStore(runList),
			},
			{
				Name:  "activate",
				Usage: "make an artifact version the active one for its name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "artifact id", Required: true},
				},
				Action: withStore(runActivate),
			},
		},
	}
}

func runImport(c *cli.Context, store modelstore.ArtifactStore) error {
	a, err := modelstore.LoadArtifactFile(c.String("file"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	a.Active = c.Bool("activate")

	if err := store.Add(c.Context, a); err != nil {
		return cli.Exit(fmt.Sprintf("failed to import artifact: %v", err), 1)
	}

	logger.Info("artifact imported", "id", a.ID, "name", a.Name, "version", a.Version, "active", a.Active)
	fmt.Fprintf(c.App.Writer, "%s\t%s v%d\n", a.ID, a.Name, a.Version)
	return nil
}

func runList(c *cli.Context, store modelstore.ArtifactStore) error {
	artifacts, err := store.List(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tACTIVE\tFEATURES\tCREATED")
	for _, a := range artifacts {
		active := ""
		if a.Active {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			a.ID, a.Name, a.Version, active, len(a.FeatureNames), a.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func runActivate(c *cli.Context, store modelstore.ArtifactStore) error {
	id, err := uuid.Parse(c.String("id"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid artifact id: %v", err), 1)
	}

	if err := store.Activate(c.Context, id); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Info("artifact activated", "id", id)
	fmt.Fprintf(c.App.Writer, "activated %s\n", id)
	return nil
}
