// Command esp32scan prints the device reports of an ESP32 Bluetooth scanner
// attached to a serial port.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mlsorensen/btscan"
	"github.com/mlsorensen/btscan/internal/config"
	"github.com/mlsorensen/btscan/internal/logging"
	"github.com/mlsorensen/btscan/pkg/esp32"
	"github.com/mlsorensen/btscan/pkg/oui"
)

const (
	exitOK    = 0
	exitRead  = 1
	exitUsage = 3
)

// blockReader is satisfied by *esp32.Receiver.
type blockReader interface {
	ReadBlock() (esp32.Block, error)
	Close() error
}

type deps struct {
	stdout io.Writer
	stderr io.Writer
	open   func(port string, baud int, timeout time.Duration) (blockReader, error)
}

func defaultDeps() deps {
	return deps{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open: func(port string, baud int, timeout time.Duration) (blockReader, error) {
			return esp32.Open(port, baud, timeout)
		},
	}
}

func newApp(d deps, code *int) *cli.App {
	def := config.DefaultConfig().Serial

	app := cli.NewApp()
	app.Name = "esp32scan"
	app.Usage = "BLE scanner using an ESP32 on a serial port"
	app.Version = "0.1.0"
	app.Writer = d.stdout
	app.ErrWriter = d.stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "port, p", Value: def.Port, Usage: "Serial `PORT`"},
		cli.IntFlag{Name: "baud, b", Value: def.Baud, Usage: "Baud `RATE`"},
		cli.Float64Flag{Name: "timeout, t", Value: def.Timeout, Usage: "Read timeout in `SECONDS`"},
		cli.IntFlag{Name: "blocks, n", Value: 1, Usage: "Number of blocks to read, 0 reads until interrupted"},
		cli.StringFlag{Name: "manuf, m", Usage: "Manufacturer (OUI) `FILE`"},
		cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
	}
	app.Action = func(c *cli.Context) error {
		*code = run(c, d)
		return nil
	}
	return app
}

func main() {
	os.Exit(runMain(os.Args, defaultDeps()))
}

func runMain(args []string, d deps) int {
	code := exitOK
	if err := newApp(d, &code).Run(args); err != nil {
		fmt.Fprintf(d.stderr, "esp32scan: %v\n", err)
		return exitUsage
	}
	return code
}

func run(c *cli.Context, d deps) int {
	cfg := config.DefaultConfig()
	cfg.Log.Level = c.String("log-level")
	cfg.Serial.Port = c.String("port")
	cfg.Serial.Baud = c.Int("baud")
	cfg.Serial.Timeout = c.Float64("timeout")
	blocks := c.Int("blocks")
	if err := cfg.Validate(); err != nil || blocks < 0 {
		if err == nil {
			err = errors.Errorf("blocks must not be negative, got %d", blocks)
		}
		fmt.Fprintf(d.stderr, "esp32scan: %v\n", err)
		return exitUsage
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(d.stderr, "esp32scan: %v\n", err)
		return exitUsage
	}
	defer closeLog()

	table := oui.New()
	if path := c.String("manuf"); path != "" {
		if table, err = oui.Load(oui.OSFS{}, path); err != nil {
			logger.Warnf("Manufacturer file not usable, manufacturers will be %q: %v", btscan.Unknown, err)
			table = oui.New()
		}
	}

	timeout := time.Duration(cfg.Serial.Timeout * float64(time.Second))
	logger.Infof("Opening %s at %d baud...", cfg.Serial.Port, cfg.Serial.Baud)
	rcv, err := d.open(cfg.Serial.Port, cfg.Serial.Baud, timeout)
	if err != nil {
		fmt.Fprintf(d.stderr, "esp32scan: %v\n", err)
		return exitRead
	}
	defer rcv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return receive(ctx, rcv, blocks, table, d, logger)
}

// receive prints blocks until n have been read (n == 0: until ctx is done).
// The port is closed on cancellation to unblock a pending read.
func receive(ctx context.Context, rcv blockReader, n int, r btscan.Resolver, d deps, log logrus.FieldLogger) int {
	go func() {
		<-ctx.Done()
		_ = rcv.Close()
	}()

	for i := 0; n == 0 || i < n; {
		b, err := rcv.ReadBlock()
		switch {
		case ctx.Err() != nil:
			return exitOK
		case errors.Is(err, esp32.ErrTimeout):
			log.Debug("No data from scanner, waiting...")
			continue
		case err != nil:
			fmt.Fprintf(d.stderr, "esp32scan: %v\n", err)
			return exitRead
		}
		printBlock(d.stdout, b, r)
		i++
	}
	return exitOK
}

func printBlock(w io.Writer, b esp32.Block, r btscan.Resolver) {
	for _, line := range b.Lines {
		fmt.Fprintln(w, line)
	}
	for _, sg := range b.Sightings() {
		name := ""
		for _, f := range sg.Fields {
			if f.Type == btscan.ADCompleteName {
				name = f.Value
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sg.Address, strconv.Itoa(sg.RSSI), name, r.Resolve(sg.Address))
	}
	fmt.Fprintln(w)
}
