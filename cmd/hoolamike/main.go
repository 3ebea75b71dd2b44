// Command hoolamike installs game-modification bundles, including the
// Tale of Two Wastelands merger, by resolving a manifest's assets
// through the Nested-Archive Extraction Engine and the TTW Asset
// Installer.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/cmn/nlog"
	"github.com/hoolamike-go/hoolamike/core/nae"
	"github.com/hoolamike-go/hoolamike/core/permits"
	"github.com/hoolamike-go/hoolamike/hostcfg"
	"github.com/hoolamike-go/hoolamike/install/aggregator"
	"github.com/hoolamike-go/hoolamike/install/dispatch"
	"github.com/hoolamike-go/hoolamike/install/locations"
	"github.com/hoolamike-go/hoolamike/install/manifest"
	"github.com/hoolamike-go/hoolamike/install/source"
	"github.com/hoolamike-go/hoolamike/install/variables"
	"github.com/hoolamike-go/hoolamike/sourceindex"
)

func main() {
	app := &cli.App{
		Name:  "hoolamike",
		Usage: "install game-modification bundles via the Core's nested-archive engine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "hoolamike.json", Usage: "host configuration path"},
		},
		Commands: []*cli.Command{
			installCmd,
			validateModlistCmd,
			modlistInfoCmd,
			printDefaultConfigCmd,
			{
				Name:  "debug",
				Usage: "developer-facing introspection commands",
				Subcommands: []*cli.Command{
					dumpCacheCmd,
				},
			},
		},
	}

	nlog.SetTitle("hoolamike")
	if err := app.Run(os.Args); err != nil {
		nlog.Errorf("%v", err)
		nlog.Flush(true)
		os.Exit(1)
	}
	nlog.Flush(false)
}

var installCmd = &cli.Command{
	Name:      "install",
	Usage:     "resolve and install every asset in a modlist manifest",
	ArgsUsage: "<manifest.json>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "cache-entries", Value: 64, Usage: "NAE extracted-member cache capacity, in resident entries"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: hoolamike install <manifest.json>", 2)
		}
		m, host, err := loadRun(c.String("config"), c.Args().First())
		if err != nil {
			return err
		}
		return runInstall(c.Context, m, host, c.Int("cache-entries"))
	},
}

var validateModlistCmd = &cli.Command{
	Name:      "validate-modlist",
	Usage:     "decode a manifest and resolve every variable and location without installing anything",
	ArgsUsage: "<manifest.json>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: hoolamike validate-modlist <manifest.json>", 2)
		}
		m, host, err := loadRun(c.String("config"), c.Args().First())
		if err != nil {
			return err
		}
		resolver := variables.New(host, m.Variables)
		if _, err := locations.Build(m.Locations, resolver); err != nil {
			return err
		}
		fmt.Printf("OK: %d variables, %d locations, %d assets\n", len(m.Variables), len(m.Locations), len(m.Assets))
		return nil
	},
}

var modlistInfoCmd = &cli.Command{
	Name:      "modlist-info",
	Usage:     "print a manifest's package header and asset-kind breakdown",
	ArgsUsage: "<manifest.json>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: hoolamike modlist-info <manifest.json>", 2)
		}
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return err
		}
		m, err := manifest.Decode(data)
		if err != nil {
			return err
		}
		fmt.Printf("package: %s %s by %s\n", m.Package.Name, m.Package.Version, m.Package.Author)
		byKind := map[manifest.AssetKind]int{}
		for _, a := range m.Assets {
			byKind[a.Kind]++
		}
		for kind, n := range byKind {
			fmt.Printf("  %-8s %d\n", kind, n)
		}
		return nil
	},
}

var printDefaultConfigCmd = &cli.Command{
	Name:  "print-default-config",
	Usage: "print a fresh host configuration to stdout",
	Action: func(c *cli.Context) error {
		cfg := hostcfg.Default()
		data, err := cfg.MarshalForDisplay()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var dumpCacheCmd = &cli.Command{
	Name:  "dump-cache",
	Usage: "MessagePack-dump the NAE cache's current contents (needs a running install to attach to; standalone it exits with an error)",
	Action: func(*cli.Context) error {
		return cli.Exit("dump-cache requires attaching to a running install; not available standalone", 1)
	},
}

func loadRun(configPath, manifestPath string) (*manifest.Manifest, *hostcfg.Config, error) {
	host, err := hostcfg.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return m, host, nil
}

func runInstall(ctx context.Context, m *manifest.Manifest, host *hostcfg.Config, cacheEntries int) error {
	concurrency := host.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	resolver := variables.New(host, m.Variables)
	locs, err := locations.Build(m.Locations, resolver)
	if err != nil {
		return fmt.Errorf("build locations: %w", err)
	}

	index, err := sourceindex.New()
	if err != nil {
		return err
	}
	defer index.Close()
	if len(host.DownloadDirs) > 0 {
		if err := index.Build(host.DownloadDirs...); err != nil {
			return fmt.Errorf("build source index: %w", err)
		}
		nlog.Infof("source index built: %d downloads indexed from %d configured director%s",
			index.Len(), len(host.DownloadDirs), cos.Plural(len(host.DownloadDirs)))
	}

	pools := permits.New(int64(concurrency))
	engine := nae.New(cacheEntries, pools, source.New(index))
	agg := aggregator.New()
	d := dispatch.New(locs, engine, agg, index, concurrency)

	if err := d.Run(ctx, m.Assets); err != nil {
		nlog.Errorf("asset dispatch completed with failures: %v", err)
		if buildErr := agg.Build(); buildErr != nil {
			nlog.Errorf("archive build also failed: %v", buildErr)
		}
		return cli.Exit("install failed", 1)
	}

	if err := agg.Build(); err != nil {
		return fmt.Errorf("build output archives: %w", err)
	}
	return nil
}
