package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forgebots/station"
	"github.com/forgebots/station/controller"
	"github.com/forgebots/station/protocol"
	"github.com/forgebots/station/telemetry"
	"github.com/forgebots/station/ui"
	"github.com/forgebots/station/vision"
)

func main() {
	cfg := &ui.Config{}
	flag.StringVar(&cfg.SerialPort, "serial", os.Getenv("STATION_SERIAL_PORT"), "Camera serial port, or \"none\"")
	flag.StringVar(&cfg.BaudRate, "baud", envOr("STATION_BAUD_RATE", "115200"), "Camera serial baud rate")
	flag.StringVar(&cfg.UDPAddr, "udp", envOr("STATION_UDP_ADDR", vision.DefaultUDPAddr), "Camera UDP listen address, or \"none\"")
	flag.StringVar(&cfg.TelemetryAddr, "telemetry", os.Getenv("STATION_TELEMETRY_ADDR"), "Telemetry server address, empty to disable")
	flag.StringVar(&cfg.RunName, "run", "", "Run name for telemetry")
	flag.StringVar(&cfg.ChannelsInput, "channels", "1=X Axis,2=Y Axis", "Telemetry channel mapping in format \"1=Name,2=Name,...\"")
	flag.StringVar(&cfg.TargetCode, "code", envOr("STATION_TARGET_CODE", "5432"), "Four-digit placement target code")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if os.Getenv("ENABLE_UI") == "true" {
		runUI(cfg, log)
		return
	}

	runCLI(cfg, log)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runUI(cfg *ui.Config, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrlCfg := controller.DefaultConfig()

	// events queue is owned by the controller; build it first so the panel
	// and transports can feed it
	panel := ui.NewStationUI(uint16(ctrlCfg.ADCMax), nil)

	configWindow := ui.NewConfigWindow(panel.App())
	configWindow.OnSubmit = func() {
		ctrlCfg.TargetCode = cfg.TargetCode

		c, err := controller.New(ctrlCfg, controller.Hardware{
			Analog:  panel.Pots(),
			Limits:  simLimits{},
			Acts:    &logActuators{log: log},
			Display: panel,
		}, log)
		if err != nil {
			log.Error("failed to build controller", "err", err)
			panel.App().Quit()
			return
		}

		panel.BindEvents(c.Events())
		startTransports(ctx, cfg, c.Events(), log)
		bindTelemetry(ctx, cfg, c, log)

		go func() {
			err := c.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("workflow stopped", "err", err)
			}
		}()
	}
	configWindow.Show(cfg)

	panel.Run(ctx)
	cancel()
}

func runCLI(cfg *ui.Config, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrlCfg := controller.DefaultConfig()
	ctrlCfg.TargetCode = cfg.TargetCode

	c, err := controller.New(ctrlCfg, controller.Hardware{
		Analog:  simPots{mid: uint16(ctrlCfg.ADCMax / 2)},
		Limits:  simLimits{},
		Acts:    &logActuators{log: log},
		Display: consoleDisplay{},
	}, log)
	if err != nil {
		log.Error("failed to build controller", "err", err)
		os.Exit(1)
	}

	startTransports(ctx, cfg, c.Events(), log)
	bindTelemetry(ctx, cfg, c, log)

	// operator commands from stdin: CONFIRM stands in for the pickup
	// button, everything else uses the camera line grammar
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			var ev protocol.Event
			if strings.EqualFold(line, "CONFIRM") || line == "C" {
				ev = protocol.Confirm{}
			} else {
				ev = protocol.ParseLine(line)
			}
			if ev == nil {
				log.Warn("unrecognized command", "line", line)
				continue
			}
			c.Events() <- ev
		}
	}()

	err = c.Run(ctx)
	if err != nil {
		log.Error("workflow stopped", "err", err)
		os.Exit(1)
	}
	log.Info("run complete")
}

// startTransports launches the configured camera feeds
func startTransports(ctx context.Context, cfg *ui.Config, events chan<- protocol.Event, log *slog.Logger) {
	if cfg.SerialPort != "" && cfg.SerialPort != vision.SerialPortNone {
		baud, err := strconv.Atoi(cfg.BaudRate)
		if err != nil {
			log.Error("invalid baud rate", "baud", cfg.BaudRate)
			baud = 115200
		}

		port, err := vision.OpenSerial(cfg.SerialPort, baud)
		if err != nil {
			log.Error("failed to open camera serial port", "port", cfg.SerialPort, "err", err)
		} else {
			go func() {
				err := vision.NewReader(port, events, log).Run(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error("serial reader stopped", "err", err)
				}
			}()
		}
	}

	if cfg.UDPAddr != "" && cfg.UDPAddr != "none" {
		go func() {
			err := vision.NewUDPListener(cfg.UDPAddr, events, log).Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("UDP listener stopped", "err", err)
			}
		}()
	}
}

// bindTelemetry wires controller hooks to the twchart uploader when an
// address is configured
func bindTelemetry(ctx context.Context, cfg *ui.Config, c *controller.Controller, log *slog.Logger) {
	if cfg.TelemetryAddr == "" {
		return
	}

	channels, err := telemetry.ParseChannels(cfg.ChannelsInput)
	if err != nil {
		log.Error("invalid telemetry channels", "err", err)
		return
	}

	runName := cfg.RunName
	if runName == "" {
		runName = "Run " + time.Now().Format("2006-01-02 15:04")
	}

	client := telemetry.NewClient(cfg.TelemetryAddr)
	id, err := client.StartRun(ctx, runName, channels)
	if err != nil {
		log.Error("failed to start telemetry session", "err", err)
		return
	}
	log.Info("telemetry session started", "id", id)

	recorder := telemetry.NewRecorder(client, log)
	c.OnTransition(func(from, to station.State, now time.Time) {
		recorder.StateChanged(from, to, now)
		if to == station.StateComplete {
			if err := client.Done(context.Background()); err != nil {
				log.Warn("failed to close telemetry session", "err", err)
			}
		}
	})
	c.OnPlaced(recorder.PlatePlaced)
}

// simPots holds both axes centered for headless runs without a joystick
type simPots struct {
	mid uint16
}

func (s simPots) Sample(controller.Axis) (uint16, error) { return s.mid, nil }

// simLimits reports both switches asserted so homing completes instantly
// on hosts with no gantry attached
type simLimits struct{}

func (simLimits) LimitX() bool { return true }
func (simLimits) LimitY() bool { return true }

// logActuators narrates actuator intents instead of driving hardware
type logActuators struct {
	log            *slog.Logger
	motorA, motorB int
	magnet         station.MagnetMode
}

func (l *logActuators) SetMotors(a, b int) {
	if a == l.motorA && b == l.motorB {
		return
	}
	l.motorA, l.motorB = a, b
	l.log.Debug("motors", "a", a, "b", b, "direction", controller.DirectionString(a, b))
}

func (l *logActuators) SetMagnet(m station.MagnetMode) {
	if m == l.magnet {
		return
	}
	l.magnet = m
	l.log.Info("magnet", "mode", m.String())
}

func (l *logActuators) Indicate(i station.Indicator) {
	l.log.Info("indicator", "signal", i.String())
}

// consoleDisplay prints the throttled status line for headless runs
type consoleDisplay struct{}

func (consoleDisplay) Show(s controller.Snapshot) {
	fmt.Printf("[%s] pos=(%d,%d) plate=%d motors=(%d,%d) %s\n",
		s.State.String(), s.Position.Row, s.Position.Col, s.Active+1,
		s.MotorA, s.MotorB, s.Direction)
}
