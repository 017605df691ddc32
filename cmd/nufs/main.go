package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/nufs/bridge"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/nufs"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var config *Config
	return &cli.App{
		Name:        appName,
		Usage:       "a tiny filesystem in a single image file",
		Description: "mount a nufs image over FUSE, or inspect and edit it offline",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "trace level: 1 operations, 5 allocation, 10 layout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "logrus level (debug, info, warn, error)",
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := LoadConfig()
			if err != nil {
				return err
			}
			if ctx.IsSet("debug") {
				c.DebugLevel = ctx.Uint64("debug")
			}
			if ctx.IsSet("log-level") {
				c.LogLevel = ctx.String("log-level")
			}
			config = c
			return c.SetupLogging()
		},
		Commands: []*cli.Command{{
			Name:      "mount",
			Usage:     "serve the image at a mountpoint until unmounted",
			ArgsUsage: "[IMAGE MOUNTPOINT]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "fuse-debug", Usage: "log every FUSE request"},
				&cli.BoolFlag{Name: "allow-other", Usage: "let other users see the mount"},
			},
			Action: func(ctx *cli.Context) error {
				return mount(config, ctx)
			},
		}, {
			Name:      "inspect",
			Usage:     "print the bitmaps, inodes and directory as YAML",
			ArgsUsage: "IMAGE",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "check", Usage: "also verify the image is consistent"},
			},
			Action: withImage(0, inspect),
		}, {
			Name:      "ls",
			Aliases:   []string{"list"},
			Usage:     "list the files in the image",
			ArgsUsage: "IMAGE",
			Action:    withImage(0, list),
		}, {
			Name:      "cat",
			Usage:     "print a file",
			ArgsUsage: "IMAGE PATH",
			Action:    withImage(1, cat),
		}, {
			Name:      "put",
			Usage:     "replace a file with the contents of FILE, or stdin",
			ArgsUsage: "IMAGE PATH [FILE]",
			Action:    withImage(1, put),
		}, {
			Name:      "rm",
			Aliases:   []string{"remove", "delete"},
			Usage:     "delete a file",
			ArgsUsage: "IMAGE PATH",
			Action: withImage(1, func(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
				return nfs.Delete(args[0])
			}),
		}, {
			Name:      "mv",
			Aliases:   []string{"rename"},
			Usage:     "rename a file, replacing any file at TO",
			ArgsUsage: "IMAGE FROM TO",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "no-replace", Aliases: []string{"n"}, Usage: "fail if TO exists"},
			},
			Action: withImage(2, func(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
				if ctx.Bool("no-replace") {
					return nfs.RenameNoReplace(args[0], args[1])
				}
				return nfs.Rename(args[0], args[1])
			}),
		}},
	}
}

// withImage opens the image named by the first argument and hands the
// remaining arguments, at least nargs of them, to f.
func withImage(nargs int, f func(*nufs.Nufs, []string, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		args := ctx.Args().Slice()
		if len(args) < nargs+1 {
			return fmt.Errorf("%s: expected arguments %s", ctx.Command.Name, ctx.Command.ArgsUsage)
		}
		nfs, err := nufs.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening image %s: %w", args[0], err)
		}
		err = f(nfs, args[1:], ctx)
		if cerr := nfs.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

func mount(config *Config, ctx *cli.Context) error {
	image, mountpoint := config.Image, config.Mountpoint
	if ctx.NArg() >= 2 {
		image, mountpoint = ctx.Args().Get(0), ctx.Args().Get(1)
	}
	if image == "" || mountpoint == "" {
		return fmt.Errorf("mount: need an image and a mountpoint (arguments, NUFS_IMAGE/NUFS_MOUNTPOINT, or config file)")
	}

	nfs, err := nufs.Open(image)
	if err != nil {
		return fmt.Errorf("opening image %s: %w", image, err)
	}
	defer nfs.Close()

	server, err := bridge.Mount(nfs, mountpoint, bridge.MountOptions{
		Debug:      config.FuseDebug || ctx.Bool("fuse-debug"),
		AllowOther: config.AllowOther || ctx.Bool("allow-other"),
	})
	if err != nil {
		return fmt.Errorf("mounting %s: %w", mountpoint, err)
	}
	log.WithFields(log.Fields{"image": image, "mountpoint": mountpoint}).Info("mounted")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.WithField("signal", sig).Info("unmounting")
		if err := server.Unmount(); err != nil {
			log.WithError(err).Error("unmount failed")
		}
	}()
	server.Wait()
	log.Info("unmounted")
	return nil
}

func inspect(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
	data, err := yaml.Marshal(nfs.Dump())
	if err != nil {
		return fmt.Errorf("marshaling dump to YAML: %w", err)
	}
	if _, err := ctx.App.Writer.Write(data); err != nil {
		return fmt.Errorf("writing YAML: %w", err)
	}
	if !ctx.Bool("check") {
		return nil
	}
	problems := nfs.Check()
	for _, p := range problems {
		log.WithError(p).Warn("inconsistent image")
	}
	if len(problems) > 0 {
		return fmt.Errorf("image has %d problems", len(problems))
	}
	return nil
}

func list(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 8, 1, ' ', 0)
	for _, e := range nfs.List() {
		a, err := nfs.StatInum(e.Inum)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", e.Inum, a.Size, e.Name)
	}
	return w.Flush()
}

func cat(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
	a, err := nfs.Stat(args[0])
	if err != nil {
		return err
	}
	data, err := nfs.Read(a.Inum, 0, a.Size)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(data)
	return err
}

func put(nfs *nufs.Nufs, args []string, ctx *cli.Context) error {
	var data []byte
	var err error
	if len(args) > 1 {
		data, err = ioutil.ReadFile(args[1])
	} else {
		data, err = ioutil.ReadAll(ctx.App.Reader)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	inum, err := nfs.Lookup(args[0])
	if errors.Is(err, common.ErrNotFound) {
		inum, err = nfs.Create(args[0])
	}
	if err != nil {
		return err
	}
	// old contents survive a write that runs out of space
	if _, err := nfs.Write(inum, 0, data); err != nil {
		return err
	}
	return nfs.Truncate(inum, uint64(len(data)))
}
