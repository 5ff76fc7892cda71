package main

import (
	"context"
	"flag"
	"net"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"unitconv"
	unitconvrpc "unitconv/rpc"
)

type Config struct {
	Listen string `toml:"listen"`
	DB     string `toml:"db"`
	Policy struct {
		SmallVolumeUnitIDs []int64 `toml:"small_volume_unit_ids"`
	} `toml:"policy"`
}

func main() {
	configPath := flag.String("config", "serve.toml", "path to the TOML config")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var cfg Config
	if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
		log.Fatal("read config", zap.Error(err))
	}
	if cfg.Listen == "" {
		cfg.Listen = "0.0.0.0:2001"
	}
	if cfg.DB == "" {
		cfg.DB = "catalog.db"
	}

	source, err := unitconv.OpenSQLite(cfg.DB)
	if err != nil {
		log.Fatal("open sqlite", zap.Error(err))
	}
	defer source.Close()

	catalog := unitconv.NewCatalog(source, unitconv.OptionPolicy{
		SmallVolumeUnitIDs: cfg.Policy.SmallVolumeUnitIDs,
	}, log)
	processor := unitconvrpc.NewServerProcessor(catalog, source, log)

	addr, err := net.ResolveUDPAddr("udp", cfg.Listen)
	if err != nil {
		log.Fatal("resolve listen addr", zap.Error(err))
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatal("listen udp", zap.Error(err))
	}
	defer conn.Close()
	log.Info("serving unit catalog", zap.String("listen", cfg.Listen), zap.String("db", cfg.DB))

	ctx := context.Background()
	buf := make([]byte, 64*1024)
	frames := make(map[string]*unitconvrpc.FrameBuffer)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			log.Error("read udp", zap.Error(err))
			continue
		}
		fb := frames[remote.String()]
		if fb == nil {
			fb = &unitconvrpc.FrameBuffer{}
			frames[remote.String()] = fb
		}
		for _, msg := range fb.Feed(buf[:n]) {
			var pb unitconvrpc.PacketBuffer
			pkts, err := pb.Feed(msg)
			if err != nil {
				log.Warn("bad packet", zap.Error(err))
				continue
			}
			for _, pkt := range pkts {
				resp := processor.ProcessPkt(ctx, pkt)
				out, err := resp.Marshal()
				if err != nil {
					log.Error("marshal response", zap.Error(err))
					continue
				}
				if _, err := conn.WriteToUDP(unitconvrpc.Frame(out), remote); err != nil {
					log.Error("write udp", zap.Error(err))
				}
			}
		}
	}
}
