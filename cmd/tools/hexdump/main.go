// Command hexdump records raw bytes from a serial port as hex text, one
// line per read, for offline inspection of the device stream.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoangnv31/mmwave-tracking/internal/capture"
	"github.com/hoangnv31/mmwave-tracking/internal/serialmux"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB1", "serial port to read")
	baud := flag.Int("baud", serialmux.DefaultDataBaudRate, "baud rate")
	output := flag.String("o", "", "output path (default stdout)")
	duration := flag.Duration("d", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := serialmux.OpenPort(serialmux.NewRealSerialPortFactory(), *port, serialmux.PortOptions{BaudRate: *baud})
	if err != nil {
		log.Fatalf("failed to open %s: %v", *port, err)
	}
	defer p.Close()

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *output, err)
		}
		defer f.Close()
		out = f
	}

	start := time.Now()
	n, err := capture.DumpHex(ctx, p, out, *duration)
	if err != nil && ctx.Err() == nil {
		log.Printf("read stopped: %v", err)
	}
	log.Printf("✓ %d bytes from %s in %s", n, *port, time.Since(start).Round(time.Millisecond))
}
