package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"serialsh/host/mcu"
	"serialsh/host/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start a read on the board and record the samples",
	Long: `Start the board's ADC read and decode the sample stream. Samples are
logged, and optionally published to MQTT (--mqtt-url) and exported as
Prometheus metrics (--metrics-listen). Interrupt with Ctrl-C; the board read is
stopped before exiting.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	flags := monitorCmd.Flags()
	flags.String("mqtt-url", "", "MQTT broker URL, e.g. mqtt://localhost:1883/lab")
	flags.String("mqtt-topic", "serialsh/samples", "MQTT topic for samples")
	flags.String("metrics-listen", "", "address for the Prometheus /metrics endpoint, e.g. :9110")

	_ = viper.BindPFlag("mqtt.url", flags.Lookup("mqtt-url"))
	_ = viper.BindPFlag("mqtt.topic", flags.Lookup("mqtt-topic"))
	_ = viper.BindPFlag("metrics.listen", flags.Lookup("metrics-listen"))
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	conn, err := mcu.Connect(cfg.SerialPort(), log)
	if err != nil {
		return err
	}
	defer conn.Close()

	sinks := []monitor.Sink{monitor.NewLogSink(log)}
	if cfg.MQTT.URL != "" {
		mq, err := monitor.DialMQTT(cfg.MQTT.URL, cfg.MQTT.Topic, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, mq)
	}
	var metrics *monitor.MetricsSink
	if cfg.Metrics.Listen != "" {
		metrics = monitor.NewMetricsSink()
		sinks = append(sinks, metrics)
	}
	mon := monitor.New(log, sinks...)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return conn.ReadLoop(ctx) })

	vctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	info, err := conn.Version(vctx)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("board did not report its version")
	} else {
		log.Info().
			Str("platform", info.Platform).
			Str("scm", info.SCM).
			Str("branch", info.Branch).
			Str("hash", info.Hash).
			Msg("board identified")
	}

	if err := conn.SendCommand("read"); err != nil {
		conn.Close()
		g.Wait()
		mon.Close()
		return err
	}

	g.Go(func() error { return mon.Run(ctx, conn.Lines()) })
	if metrics != nil {
		g.Go(func() error { return metrics.Serve(ctx, cfg.Metrics.Listen, log) })
	}
	g.Go(func() error {
		<-ctx.Done()
		if err := conn.Interrupt(); err != nil {
			log.Warn().Err(err).Msg("could not stop the board read")
		}
		return conn.Close()
	})

	err = g.Wait()
	log.Info().Uint64("samples", mon.Samples()).Msg("monitor stopped")
	return err
}
