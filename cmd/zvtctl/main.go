package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/holzweg/zvt"
	"github.com/holzweg/zvt/internal/logging"
	"github.com/holzweg/zvt/internal/observability"
	"github.com/holzweg/zvt/link"
	"github.com/holzweg/zvt/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "zvtctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "zvtctl.toml", "path to the terminal config file")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		return fmt.Errorf("usage: zvtctl [-config file] <register|pay|refund|reversal|end-of-day|totals|repeat-receipt|diagnosis|software-update|logoff|abort> [args]")
	}

	logging.ConfigureRuntime()
	log := observability.InitLogger("zvtctl")

	cfg, err := loadAppConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dev transport.Device
	if cfg.SerialPort != "" {
		serialCfg := transport.DefaultSerialConfig(cfg.SerialPort)
		if cfg.BaudRate != 0 {
			serialCfg.BaudRate = cfg.BaudRate
		}
		dev = transport.NewSerial(serialCfg)
	} else {
		dev = transport.NewTCP(transport.DefaultTCPConfig(cfg.Address))
	}
	if err := dev.Connect(ctx); err != nil {
		return fmt.Errorf("connect terminal: %w", err)
	}

	linkCfg := link.DefaultConfig()
	if cfg.AckTimeout != 0 {
		linkCfg.AckTimeout = cfg.AckTimeout
	}
	var ch link.Channel
	if cfg.SerialPort != "" {
		ch = link.NewSerial(dev, linkCfg, log)
	} else {
		ch = link.NewTCP(dev, linkCfg, log)
	}

	client, err := zvt.NewClient(ch, cfg.Client, log)
	if err != nil {
		ch.Close()
		return err
	}
	defer client.Close()

	client.OnIntermediateStatus(func(st zvt.IntermediateStatus) {
		log.Info().Str("status", st.Message).Msg("terminal")
	})
	client.OnPrintLine(func(line zvt.PrintLine) {
		fmt.Println(line.Text)
	})
	client.OnReceipt(func(r zvt.Receipt) {
		for _, line := range r.Lines {
			fmt.Println(line)
		}
	})
	client.OnStatusInformation(func(si zvt.StatusInformation) {
		ev := log.Info().Uint8("result_code", si.ResultCode)
		if si.Amount != nil {
			ev = ev.Str("amount", si.Amount.StringFixed(2))
		}
		if si.ReceiptNumber != nil {
			ev = ev.Uint16("receipt", *si.ReceiptNumber)
		}
		ev.Msg("status information")
	})

	res, err := dispatch(ctx, client, cfg, args)
	if err != nil {
		return err
	}
	log.Info().Str("state", res.State.String()).Str("message", res.Message).Msg("done")
	if res.State != zvt.StateSuccessful {
		return fmt.Errorf("command ended %s: %s", res.State, res.Message)
	}
	return nil
}

func dispatch(ctx context.Context, client *zvt.Client, cfg appConfig, args []string) (zvt.Result, error) {
	verb, rest := args[0], args[1:]
	switch verb {
	case "register":
		return client.Registration(ctx, cfg.Registration)
	case "pay":
		if len(rest) != 1 {
			return zvt.Result{}, fmt.Errorf("usage: pay <amount>")
		}
		amount, err := decimal.NewFromString(rest[0])
		if err != nil {
			return zvt.Result{}, fmt.Errorf("parse amount: %w", err)
		}
		return client.Payment(ctx, amount)
	case "refund":
		if len(rest) < 1 || len(rest) > 2 {
			return zvt.Result{}, fmt.Errorf("usage: refund <amount> [trace]")
		}
		amount, err := decimal.NewFromString(rest[0])
		if err != nil {
			return zvt.Result{}, fmt.Errorf("parse amount: %w", err)
		}
		var trace *uint32
		if len(rest) == 2 {
			n, err := strconv.ParseUint(rest[1], 10, 32)
			if err != nil {
				return zvt.Result{}, fmt.Errorf("parse trace: %w", err)
			}
			t := uint32(n)
			trace = &t
		}
		return client.Refund(ctx, amount, trace)
	case "reversal":
		if len(rest) != 1 {
			return zvt.Result{}, fmt.Errorf("usage: reversal <receipt-number>")
		}
		n, err := strconv.ParseUint(rest[0], 10, 16)
		if err != nil {
			return zvt.Result{}, fmt.Errorf("parse receipt number: %w", err)
		}
		return client.Reversal(ctx, uint16(n))
	case "end-of-day":
		return client.EndOfDay(ctx)
	case "totals":
		return client.SendTurnoverTotals(ctx)
	case "repeat-receipt":
		return client.RepeatLastReceipt(ctx)
	case "diagnosis":
		return client.Diagnosis(ctx)
	case "software-update":
		return client.SoftwareUpdate(ctx)
	case "logoff":
		return client.LogOff(ctx)
	case "abort":
		return client.Abort(ctx)
	default:
		return zvt.Result{}, fmt.Errorf("unknown command %q", verb)
	}
}
