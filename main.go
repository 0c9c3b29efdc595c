package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/config"
	"dormhop/session"
	"dormhop/utils"
)

const version = "0.3.0"

const usage = `DormHop command line.

Usage:
    dormhop login
    dormhop logout
    dormhop whoami
    dormhop rooms [options] [--occupancy=<size>...] [--campus=<campus>...] [--pages=<n>] [--insights]
    dormhop room <room_id>
    dormhop save <room_id>
    dormhop unsave <room_id>
    dormhop saved
    dormhop knock <room_id>
    dormhop knocks
    dormhop accept <knock_id>
    dormhop reject <knock_id>
    dormhop cancel <knock_id>
    dormhop profile
    dormhop edit-room --dorm=<dorm> --room-number=<number> --size=<size>
        [--amenity=<amenity>...] [--description=<text>] [--listed=<on|off>]
    dormhop visibility (on|off)
    dormhop export [options] [--occupancy=<size>...] [--campus=<campus>...] [--pages=<n>]
        [--csv=<path>] [--postgres] [--replace]
    dormhop -h | --help
    dormhop --version

Options:
    -h --help                Show this screen.
    --version                Show version.
    --query=<text>           Match dorm, room number or amenity.
    --occupancy=<size>       Keep rooms of this size (Single, Double, 3, ...).
    --campus=<campus>        Keep rooms on this campus.
    --gender=<gender>        Keep rooms whose owner has this gender.
    --recommended            Show recommended rooms instead of all rooms.
    --pages=<n>              Load this many extra pages [default: 0].
    --insights               Print a summary of the view.
    --csv=<path>             CSV output path (defaults to CSV_OUTPUT_PATH).
    --postgres               Archive the view in PostgreSQL.
    --replace                Clear the archive before writing.`

type command struct {
	name string
	run  func(a *app, ctx context.Context, opts docopt.Opts) error
}

var commands = []command{
	{"login", (*app).login},
	{"logout", (*app).logout},
	{"whoami", (*app).whoami},
	{"rooms", (*app).rooms},
	{"room", (*app).room},
	{"save", (*app).save},
	{"unsave", (*app).unsave},
	{"saved", (*app).saved},
	{"knock", (*app).knock},
	{"knocks", (*app).knocks},
	{"accept", (*app).accept},
	{"reject", (*app).deleteKnock},
	{"cancel", (*app).deleteKnock},
	{"profile", (*app).profile},
	{"edit-room", (*app).editRoom},
	{"visibility", (*app).visibility},
	{"export", (*app).export},
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		color.Red("Failed to build logger: %v", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("Failed to start", zap.Error(err))
		color.Red("%v", err)
		os.Exit(1)
	}
	defer a.Close()

	for _, c := range commands {
		if on, _ := opts.Bool(c.name); !on {
			continue
		}
		logger.Debug("Running command", zap.String("command", c.name))
		if err := c.run(a, ctx, opts); err != nil {
			logger.Debug("Command failed", zap.String("command", c.name), zap.Error(err))
			color.Red("%s", describe(err))
			os.Exit(1)
		}
		return
	}
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrNoToken):
		return "Not signed in. Run `dormhop login` first."
	case errors.Is(err, session.ErrExpired):
		return "Session expired, please sign in again with `dormhop login`."
	}
	if api.KindOf(err) == api.KindOther {
		return err.Error()
	}
	return api.Message(err)
}

func idArg(opts docopt.Opts, key string) (int, error) {
	id, err := opts.Int(key)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive number", key)
	}
	return id, nil
}
