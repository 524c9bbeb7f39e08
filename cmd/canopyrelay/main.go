// Command canopyrelay runs the lockstep multiplayer relay (spec §6) as a
// standalone TCP server speaking spec §6.4's length-delimited framing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/elvencanopy/canopy/pkg/relay"
)

const version = "0.1.0"

var (
	addr     = flag.String("addr", ":7777", "TCP address to listen on")
	versionF = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("canopyrelay version %s\n", version)
		return
	}

	srv := relay.NewServer()

	log.Printf("canopyrelay listening on %s", *addr)
	if err := srv.ListenAndServe(context.Background(), *addr); err != nil {
		log.Fatalf("canopyrelay: %v", err)
	}
}
