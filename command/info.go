package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/complete"
	"github.com/alexej-v/varlink_cli/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var infoCommand = &Command{
	Name: "info",
	Info: "Print information about a service",
	Run:  runInfo,
	Complete: func(_ context.Context, _ *Env, args []string, current string) []string {
		return complete.Info(args, current)
	},
}

func runInfo(ctx context.Context, env *Env, args []string) error {
	a, err := config.ParseInfo(args)
	if err != nil {
		return err
	}
	if a.Help {
		usage(env.Stdout, env.Program, "info [ADDRESS]",
			"Prints information about the service running at ADDRESS.", helpOption)
		return nil
	}

	info, remote, err := getInfo(ctx, env, a.Target)
	if err != nil {
		return err
	}
	if remote != "" {
		fmt.Fprintf(env.Stderr, "Call failed with error: %s\n", remote)
		return clierr.Newf(clierr.RemoteError, "GetInfo failed with error %s", remote)
	}

	fmt.Fprintln(env.Stdout, renderInfo(info, env.Palette.Enabled()))
	return nil
}

func renderInfo(info *serviceInfo, colors bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendRows([]table.Row{
		{"Vendor", info.Vendor},
		{"Product", info.Product},
		{"Version", info.Version},
		{"URL", info.URL},
		{"Interfaces", strings.Join(*info.Interfaces, "\n")},
	})

	name := table.ColumnConfig{Number: 1, Align: text.AlignLeft, VAlign: text.VAlignTop}
	if colors {
		name.Colors = text.Colors{text.Bold}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		name,
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}
