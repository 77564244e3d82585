// Command btscan scans for Bluetooth Classic and Bluetooth Low Energy devices
// and prints what it found. Reports go to stdout and, on request, to text,
// XML and JSON files.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mlsorensen/btscan"
	"github.com/mlsorensen/btscan/pkg/classic"
	"github.com/mlsorensen/btscan/pkg/oui"
	_ "github.com/mlsorensen/btscan/pkg/scanners/all"
)

// Exit codes.
const (
	exitOK     = 0
	exitScan   = 1
	exitOutput = 2
	exitUsage  = 3
)

const defaultScan = 3.0

// deps are the outside world as seen by the command.
type deps struct {
	stdout io.Writer
	stderr io.Writer

	fsys      fs.FS
	home      func() (string, error)
	writeFile func(name string, data []byte) error

	newScanner  func(name string, opts btscan.Options) (btscan.Scanner, error)
	newInquirer func(adapter string, log logrus.FieldLogger) btscan.Inquirer
}

func defaultDeps() deps {
	return deps{
		stdout: os.Stdout,
		stderr: os.Stderr,
		fsys:   oui.OSFS{},
		home:   os.UserHomeDir,
		writeFile: func(name string, data []byte) error {
			return os.WriteFile(name, data, 0o644)
		},
		newScanner: btscan.NewScanner,
		newInquirer: func(adapter string, log logrus.FieldLogger) btscan.Inquirer {
			return classic.New(adapter, log)
		},
	}
}

func newApp(d deps, code *int) *cli.App {
	app := cli.NewApp()

	app.Name = "btscan"
	app.Usage = "Scan for Bluetooth Classic and Bluetooth LE devices"
	app.Version = "0.1.0"
	app.Writer = d.stdout
	app.ErrWriter = d.stderr
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "classic, c", Usage: "Scan for Classic Bluetooth devices only"},
		cli.BoolFlag{Name: "le, l", Usage: "Scan for Bluetooth LE devices only"},
		cli.Float64Flag{Name: "scantime, s", Value: defaultScan, Usage: "Time span for scanning in `SECONDS`"},
		cli.StringFlag{Name: "manuf, m", Usage: "Manufacturer (OUI) `FILE`"},
		cli.StringFlag{Name: "writetxt, w", Usage: "Text `FILE` to write"},
		cli.StringFlag{Name: "xml, x", Usage: "XML `FILE` to write"},
		cli.StringFlag{Name: "json, j", Usage: "JSON `FILE` to write"},
		cli.StringFlag{Name: "backend, b", Usage: fmt.Sprintf("BLE backend `NAME` %v", btscan.Backends())},
		cli.StringFlag{Name: "adapter", Usage: "Host adapter `ID`, e.g. hci0"},
		cli.BoolFlag{Name: "active", Usage: "Request scan responses where the backend supports it"},
		cli.StringFlag{Name: "config", Usage: "YAML config `FILE`"},
		cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
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

// runMain runs the app and returns its exit code.
func runMain(args []string, d deps) int {
	code := exitOK
	if err := newApp(d, &code).Run(args); err != nil {
		fmt.Fprintf(d.stderr, "btscan: %v\n", err)
		return exitUsage
	}
	return code
}
