// Command nxdnradiod is a thin demonstration harness: it opens a serial
// link, wires up a Radio and a Communicator, and relays whatever arrives on
// the "about-you" topic to stdout. It is not part of the driver's contract,
// just the shortest path to seeing it work against real hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/communicator"
	"github.com/evocount/nxdnradio/pkg/radio"
	"github.com/evocount/nxdnradio/pkg/serialio"
)

// targetBaudrate is the line rate a change-baudrate upgrade settles on.
const targetBaudrate = 57600

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial device path")
	baud := flag.Uint("baud", 9600, "initial line rate")
	changeBaudrate := flag.Bool("change-baudrate", false, "upgrade the radio to 57600 baud after open")
	flag.Parse()

	link, err := serialio.New(*port, *baud, nil)
	if err != nil {
		log.Fatalf("open %s: %v", *port, err)
	}
	defer link.Destroy()

	if *changeBaudrate && *baud != targetBaudrate {
		cmd, err := nxdnradio.SetBaudrate(targetBaudrate)
		if err != nil {
			log.Fatalf("build set-baudrate command: %v", err)
		}
		if err := link.UpgradeBaudrate(cmd.Bytes(), targetBaudrate); err != nil {
			log.Fatalf("upgrade baudrate: %v", err)
		}
	}

	r := radio.New(link, radio.DefaultConfig())
	comm := communicator.New(r, communicator.Config{
		Listeners:      []string{"about-you"},
		Compression:    true,
		ReceiveTimeout: communicator.DefaultConfig().ReceiveTimeout,
	}).WithStatusSource(r.Receiver.Status)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := r.Receiver.Run(ctx); err != nil {
			log.Warnf("receiver stopped: %v", err)
		}
	}()
	go func() {
		if err := comm.Start(ctx, r.Receiver.Data); err != nil && ctx.Err() == nil {
			log.Warnf("communicator stopped: %v", err)
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-comm.Errors():
				log.Warnf("communicator error: %v", err)
			}
		}
	}()

	queue, err := comm.GetListenerQueue("about-you")
	if err != nil {
		log.Fatal(err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-queue:
			fmt.Printf("%s: counter=%d payload=%v\n", msg.Peer, msg.Counter, msg.Payload)
		}
	}
}
