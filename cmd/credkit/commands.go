package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/n1/credkit/internal/credential"
	"github.com/n1/credkit/internal/payload"
)

func syncFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "sync",
		Usage: "Synchronization scope (any, yes, no)",
	}
}

// exitError maps credential errors to exit status 1 with a short message.
func exitError(err error) error {
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return cli.Exit("not found", 1)
	case errors.Is(err, credential.ErrStoreUnavailable):
		return cli.Exit(fmt.Sprintf("secret store unavailable: %v", err), 1)
	default:
		return cli.Exit(err.Error(), 1)
	}
}

func (a *app) setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Save a credential",
		ArgsUsage: "<service> <account> [password]",
		Description: "Saves a password, read from the third argument or from standard input, " +
			"or a YAML object given with --object-file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "label", Usage: "Display label"},
			&cli.StringFlag{Name: "object-file", Usage: "YAML file holding a structured secret"},
			syncFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 || c.NArg() > 3 {
				return cli.Exit("Usage: set <service> <account> [password]", 1)
			}
			q, err := a.newQuery(c, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			q.Label = c.String("label")

			switch {
			case c.IsSet("object-file"):
				if c.NArg() == 3 {
					return cli.Exit("Give either a password or --object-file, not both", 1)
				}
				obj, err := readObject(expandPath(c.String("object-file")))
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if err := q.SetObject(obj); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			case c.NArg() == 3:
				q.SetPassword(c.Args().Get(2))
			default:
				b, err := io.ReadAll(a.in)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				q.SetPassword(strings.TrimRight(string(b), "\r\n"))
			}

			if err := q.Save(); err != nil {
				return exitError(err)
			}
			return nil
		},
	}
}

func readObject(path string) (payload.Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object file '%s': %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid object file '%s': %w", path, err)
	}
	return payload.FromInterface(raw)
}

func (a *app) getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a credential",
		ArgsUsage: "<service> <account>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "object", Usage: "Print the secret as a YAML object"},
			syncFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("Usage: get <service> <account>", 1)
			}
			q, err := a.newQuery(c, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			if err := q.Fetch(); err != nil {
				return exitError(err)
			}

			if !c.Bool("object") {
				pw, _ := q.Password()
				fmt.Fprintln(a.out, pw)
				return nil
			}
			obj, err := q.Object()
			if err != nil {
				return cli.Exit(fmt.Sprintf("secret is not an object: %v", err), 1)
			}
			out, err := yaml.Marshal(obj.Interface())
			if err != nil {
				return err
			}
			_, err = a.out.Write(out)
			return err
		},
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a credential",
		ArgsUsage: "<service> <account>",
		Flags:     []cli.Flag{syncFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("Usage: delete <service> <account>", 1)
			}
			q, err := a.newQuery(c, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			if err := q.Delete(); err != nil {
				return exitError(err)
			}
			return nil
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List stored credentials",
		ArgsUsage: "[service]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Only list this account"},
			syncFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return cli.Exit("Usage: list [service]", 1)
			}
			q, err := a.newQuery(c, c.Args().First(), c.String("account"))
			if err != nil {
				return err
			}
			entries, err := q.FetchAll()
			if err != nil {
				return exitError(err)
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tACCOUNT\tLABEL\tSYNCED\tMODIFIED")
			for _, e := range entries {
				modified := "-"
				if !e.ModifiedAt.IsZero() {
					modified = e.ModifiedAt.Local().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", e.Service, e.Account, e.Label, e.Synchronizable, modified)
			}
			return w.Flush()
		},
	}
}
