// Command encapgen runs the encapsulation pipeline over synthetic
// traffic and writes the resulting Ethernet/IPv4/UDP datagrams into a
// PCAP file for inspection with a standard receiving stack.
package main

import (
	"net"
	"net/netip"

	"github.com/apex/log"
	"github.com/bassosimone/encap"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("encapgen")
	}
}

// configFile is the optional YAML configuration file.
var configFile string

var rootCmd = &cobra.Command{
	Use:   "encapgen",
	Short: "Generate encapsulated UDP datagrams into a PCAP file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return err
			}
		}
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
		return run()
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "optional YAML config file")
	flags.Int("packets", 100, "number of packets to generate")
	flags.Int("lane-width", encap.DefaultLaneWidth, "transfer unit width in bytes")
	flags.Int("min-length", 0, "minimum payload length")
	flags.Int("max-length", 1472, "maximum payload length")
	flags.Int64("seed", 1, "traffic generator seed")
	flags.Int("data-queue", encap.DefaultDataQueueCapacity, "data queue capacity in units")
	flags.Int("length-queue", encap.DefaultLengthQueueCapacity, "length queue capacity")
	flags.String("pcap", "encapgen.pcap", "output PCAP file")
	flags.String("src-mac", "02:00:00:00:00:01", "source MAC address")
	flags.String("dst-mac", "02:00:00:00:00:02", "destination MAC address")
	flags.String("src-ip", "10.0.0.2", "source IPv4 address")
	flags.String("dst-ip", "10.0.0.1", "destination IPv4 address")
	flags.Uint16("src-port", 54321, "source UDP port")
	flags.Uint16("dst-port", 4789, "destination UDP port")
	flags.Bool("verbose", false, "emit debug logs")
	encap.Must0(viper.BindPFlags(flags))
}

// headerConfig builds the [encap.HeaderConfig] from the configuration.
func headerConfig() (*encap.HeaderConfig, error) {
	srcMAC, err := net.ParseMAC(viper.GetString("src-mac"))
	if err != nil {
		return nil, err
	}
	dstMAC, err := net.ParseMAC(viper.GetString("dst-mac"))
	if err != nil {
		return nil, err
	}
	srcIP, err := netip.ParseAddr(viper.GetString("src-ip"))
	if err != nil {
		return nil, err
	}
	dstIP, err := netip.ParseAddr(viper.GetString("dst-ip"))
	if err != nil {
		return nil, err
	}
	cfg := &encap.HeaderConfig{
		SrcMAC:  srcMAC,
		DstMAC:  dstMAC,
		SrcIP:   srcIP,
		DstIP:   dstIP,
		SrcPort: uint16(viper.GetUint("src-port")),
		DstPort: uint16(viper.GetUint("dst-port")),
	}
	return cfg, nil
}

// run drives the source, the pipeline, and the sink to completion.
func run() error {
	cfg, err := headerConfig()
	if err != nil {
		return err
	}
	pipeline, err := encap.NewPipeline(&encap.PipelineConfig{
		Header:              cfg,
		Logger:              log.Log,
		LaneWidth:           viper.GetInt("lane-width"),
		DataQueueCapacity:   viper.GetInt("data-queue"),
		LengthQueueCapacity: viper.GetInt("length-queue"),
		CheckLockstep:       true,
	})
	if err != nil {
		return err
	}
	sink, err := encap.NewPCAPSink(viper.GetString("pcap"), log.Log)
	if err != nil {
		return err
	}
	defer sink.Close()

	source := encap.NewPayloadSource(
		pipeline.LaneWidth(),
		viper.GetInt("min-length"),
		viper.GetInt("max-length"),
		viper.GetInt64("seed"),
	)

	// tick the pipeline until we have written every requested frame,
	// recording when each datagram completes
	packets := viper.GetInt("packets")
	var unitsOut, ticksPerPacket []float64
	lastDone, units := 0, 0
	for tick := 0; sink.FrameCount() < packets; tick++ {
		accepted, out := pipeline.Tick(source.Peek(), true)
		if accepted {
			source.Advance()
		}
		if out == nil {
			continue
		}
		units++
		if err := sink.Collect(*out); err != nil {
			return err
		}
		if out.Last {
			unitsOut = append(unitsOut, float64(units))
			ticksPerPacket = append(ticksPerPacket, float64(tick-lastDone))
			lastDone, units = tick, 0
		}
	}

	logSummary("output units per datagram", unitsOut)
	logSummary("ticks per datagram", ticksPerPacket)
	log.Infof("encapgen: wrote %d frames to %s", sink.FrameCount(), viper.GetString("pcap"))
	return nil
}

// logSummary logs simple statistics about a series.
func logSummary(name string, series []float64) {
	mean := encap.Must1(stats.Mean(series))
	max := encap.Must1(stats.Max(series))
	p90 := encap.Must1(stats.Percentile(series, 90))
	log.Infof("encapgen: %s: mean %.1f, p90 %.1f, max %.0f", name, mean, p90, max)
}
