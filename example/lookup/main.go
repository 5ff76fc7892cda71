package main

import (
	"flag"
	"fmt"
	"net"
	"time"

	unitconvrpc "unitconv/rpc"
)

func main() {
	server := flag.String("server", "127.0.0.1:2001", "catalog server address")
	from := flag.Int64("from", 1, "source unit id")
	to := flag.Int64("to", 3, "destination unit id")
	product := flag.Int64("product", 0, "optional product scope (0 = generic)")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		panic(err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	var productIDs []int64
	if *product != 0 {
		productIDs = append(productIDs, *product)
	}
	req, reqID, err := unitconvrpc.NewFactorRequest(*from, *to, productIDs...)
	if err != nil {
		panic(err)
	}
	reqBytes, err := req.Marshal()
	if err != nil {
		panic(err)
	}
	if _, err := conn.Write(unitconvrpc.Frame(reqBytes)); err != nil {
		panic(err)
	}

	client := unitconvrpc.NewClientProcessor()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var fb unitconvrpc.FrameBuffer
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			panic(err)
		}
		for _, msg := range fb.Feed(buf[:n]) {
			var pb unitconvrpc.PacketBuffer
			pkts, err := pb.Feed(msg)
			if err != nil {
				panic(err)
			}
			for _, pkt := range pkts {
				client.HandleResponse(pkt)
			}
		}
		if resp, ok := client.Take(reqID); ok {
			factor, found, err := unitconvrpc.ParseFactorResponse(resp)
			if err != nil {
				panic(err)
			}
			if !found {
				fmt.Printf("no conversion between units %d and %d\n", *from, *to)
				return
			}
			fmt.Printf("1 x unit %d = %g x unit %d\n", *from, factor, *to)
			return
		}
	}
}
