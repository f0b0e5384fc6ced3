package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixwatch"
	"pixwatch/internal/audit"
	"pixwatch/internal/config"
	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"
	"pixwatch/kit/provider"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	amount       string
	description  string
	duration     int
	email        string
	qrOut        string
	auditFile    string
	configPath   string
	sandbox      bool
	approveAfter time.Duration
}

func generateCmd() *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Pix payment and wait for its outcome",
		Long: `Generate a Pix payment, print its copy-and-paste code and block until
the payment is paid, cancelled, expires or fails. Ctrl+C cancels the payment.

Credentials come from PIX_MP_TOKEN and PIX_NGROK_TOKEN or from --config.
Without a tunnel token the payment is followed by polling.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount to charge, e.g. 2.50")
	cmd.Flags().StringVar(&f.description, "description", "", "Description shown to the payer")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "Minutes until the payment expires (default 60)")
	cmd.Flags().StringVar(&f.email, "email", "", "Payer e-mail")
	cmd.Flags().StringVar(&f.qrOut, "qr-out", "", "Write the QR code PNG to this file")
	cmd.Flags().StringVar(&f.auditFile, "audit-file", "", "Append lifecycle events as JSON lines to this file")
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML config file")
	cmd.Flags().BoolVar(&f.sandbox, "sandbox", false, "Use an in-memory provider instead of Mercado Pago")
	cmd.Flags().DurationVar(&f.approveAfter, "sandbox-approve-after", 0, "With --sandbox, approve the payment after this delay")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runGenerate(cmd *cobra.Command, f *generateFlags) error {
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", f.amount, err)
	}

	cfg, err := config.Load(f.configPath)
	if f.sandbox && errors.Is(err, config.ErrMissingAccessToken) {
		cfg.AccessToken, err = "sandbox", nil
	}
	if err != nil {
		return err
	}

	logger := observability.NewLogger()
	opts := pixwatch.Options{
		AccessToken:     cfg.AccessToken,
		TunnelToken:     cfg.TunnelToken,
		TunnelPort:      cfg.TunnelPort,
		PollingInterval: cfg.PollingInterval,
		BaseURL:         cfg.ProviderBaseURL,
		Logger:          logger,
	}
	var fake *provider.Fake
	if f.sandbox {
		fake = provider.NewFake()
		opts.Provider = fake
	}

	client, err := pixwatch.NewClient(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := client.GeneratePix(ctx, pixwatch.PaymentOptions{
		Amount:          amount,
		Description:     f.description,
		DurationMinutes: f.duration,
		PayerEmail:      f.email,
	})
	if err != nil {
		return err
	}

	if f.auditFile != "" {
		rec, err := audit.NewRecorderWithFile(logger, f.auditFile)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Close() }()
		rec.Attach(p)
	}

	// Registered after the audit recorder so every line is written before the
	// outcome is reported. A terminal status is reported on its last notice.
	outcome := make(chan string, 8)
	p.On(broker.Wildcard, func(ctx context.Context, evt broker.Event) error {
		name := evt.Name()
		switch name {
		case events.StatusEventName(string(pixwatch.StatusApproved)):
			name = events.PaymentPaid{}.Name()
		case events.StatusEventName(string(pixwatch.StatusCancelled)):
			name = events.PaymentCancelled{}.Name()
		case events.PaymentExpired{}.Name(), events.PaymentFailed{}.Name():
		default:
			return nil
		}
		select {
		case outcome <- name:
		default:
		}
		return nil
	})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "payment %s for %s, expires in %s\n", p.ID(), p.Amount().StringFixed(2), p.Duration())
	fmt.Fprintf(out, "pix copy and paste:\n%s\n", p.QRCode().Content)
	if f.qrOut != "" {
		if err := writeQR(p.QRCode(), f.qrOut); err != nil {
			return err
		}
		fmt.Fprintf(out, "qr code written to %s\n", f.qrOut)
	}

	if fake != nil && f.approveAfter > 0 {
		time.AfterFunc(f.approveAfter, func() { _ = fake.SetStatus(p.ID(), "approved") })
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case name := <-outcome:
			name = settle(name, outcome)
			fmt.Fprintf(out, "%s: %s\n", name, p.StatusInfo().Title)
			logger.Info("metrics snapshot", client.Metrics().Snapshot()...)
			return nil
		case <-ticker.C:
			logger.Info("metrics snapshot", client.Metrics().Snapshot()...)
			logger.Info("health", client.Health(ctx).Fields()...)
		case <-ctx.Done():
			if err := p.Cancel(context.Background()); err != nil {
				logger.Error("cancel on interrupt failed", "payment_id", p.ID(), "error", err.Error())
			}
			fmt.Fprintf(out, "interrupted, payment %s is %s\n", p.ID(), p.Status())
			logger.Info("metrics snapshot", client.Metrics().Snapshot()...)
			return nil
		}
	}
}

// settle waits briefly after a cancellation for the expiration notice that
// follows it when the deadline caused the cancel.
func settle(name string, outcome <-chan string) string {
	if name != (events.PaymentCancelled{}).Name() {
		return name
	}
	select {
	case next := <-outcome:
		return next
	case <-time.After(time.Second):
		return name
	}
}

func writeQR(qr pixwatch.QRCode, path string) error {
	b, err := qr.Image.Bytes()
	if err != nil {
		return fmt.Errorf("decode qr image: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
