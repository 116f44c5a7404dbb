// Command minichat is demonstration scaffolding for the reliable
// transport: it loads a topology file describing a set of routers and
// hosts sharing one in-memory fabric, then drives a line-oriented chat
// session between two of the host nodes over a [conn.Connection].
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/conn"
	"github.com/AndreKoraleski/Mini-Net/internal/netsim"
	golog "github.com/AndreKoraleski/Mini-Net/log"
	"github.com/AndreKoraleski/Mini-Net/network"
	"github.com/AndreKoraleski/Mini-Net/transport"
)

func main() {
	topologyPath := flag.String("topology", "topology.json", "path to the topology file")
	as := flag.String("as", "", "vip of the host node this process chats as")
	peer := flag.String("peer", "", "vip of the host node to chat with")
	port := flag.Uint("port", 9000, "port both chat peers bind to")
	dial := flag.Bool("dial", false, "actively connect to peer instead of waiting to accept")
	flag.Parse()

	if *as == "" || *peer == "" {
		fmt.Fprintln(os.Stderr, "usage: minichat -topology=topology.json -as=<vip> -peer=<vip> [-dial]")
		os.Exit(2)
	}

	golog.SetDefault(golog.Console())

	top, err := LoadTopology(*topologyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-stop
		cancel()
	}()

	hosts, err := buildFabric(ctx, top)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	self, ok := hosts[address.VIP(*as)]
	if !ok {
		fmt.Fprintf(os.Stderr, "no host node named %q in topology\n", *as)
		os.Exit(1)
	}

	destination := address.VirtualAddress{VIP: address.VIP(*peer), Port: address.Port(*port)}

	c, err := openChatConnection(ctx, self, destination, address.Port(*port), *dial)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close(ctx)

	runChat(ctx, c)
}

// buildFabric constructs the in-memory fabric and every node in top,
// returning the transport for each host node keyed by its VIP.
func buildFabric(ctx context.Context, top Topology) (map[address.VIP]*transport.ReliableTransport, error) {
	fabric := netsim.NewFabric()
	hosts := make(map[address.VIP]*transport.ReliableTransport)

	for _, node := range top.Nodes {
		link := fabric.NewLink(node.vip(), node.DropProb)

		switch node.Kind {
		case "router":
			routes := make(map[address.VIP]address.VIP, len(node.Routes))
			for dst, nextHop := range node.Routes {
				routes[address.VIP(dst)] = address.VIP(nextHop)
			}
			network.NewRouter(ctx, link, node.vip(), routes, nil)
		case "host":
			net := network.NewHostNetwork(node.vip(), address.VIP(node.Gateway), link, nil)
			hosts[node.vip()] = transport.New(ctx, node.vip(), net, nil)
		}
	}
	return hosts, nil
}

// openChatConnection drives the handshake to or from destination,
// returning once the connection is established.
func openChatConnection(ctx context.Context, self *transport.ReliableTransport, destination address.VirtualAddress, localPort address.Port, dial bool) (*conn.Connection, error) {
	if dial {
		c, err := self.Connect(destination, localPort)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		if err := c.Connect(ctx); err != nil {
			return nil, fmt.Errorf("handshake: %w", err)
		}
		return c, nil
	}

	c, err := self.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	if err := c.Accept(ctx); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return c, nil
}

// runChat pumps stdin lines to the connection and prints whatever
// arrives, until ctx is cancelled or the peer closes.
func runChat(ctx context.Context, c *conn.Connection) {
	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		for {
			data, ok := c.Receive(ctx)
			if !ok {
				fmt.Println("[peer closed]")
				return
			}
			fmt.Printf("%s> %s\n", c.Remote().VIP, data)
		}
	}()

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := c.Send(ctx, scanner.Bytes()); err != nil {
				fmt.Fprintln(os.Stderr, "send:", err)
				return
			}
		}
	}()

	select {
	case <-recvDone:
	case <-sendDone:
	case <-ctx.Done():
	}
}
