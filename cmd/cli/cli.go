// Package cli wires the cobra command surface onto a Session: version,
// readers, info, listapps, appdata <index>, and cap.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/channel"
	"github.com/malivvan/emvcap/session"
	"github.com/malivvan/emvcap/tlv"
	"github.com/malivvan/emvcap/transport"
	"github.com/spf13/cobra"
)

// Driver opens a session against a reader, by index, and lists available
// readers. A real implementation wraps a PC/SC or CCID stack; wiring one up
// is outside this module's scope (§1) so the default Driver always reports
// no readers available.
type Driver interface {
	channel.Enumerator
	Open(reader int) (channel.Channel, error)
}

type noReaderDriver struct{}

func (noReaderDriver) Readers() ([]string, error) { return nil, nil }
func (noReaderDriver) Open(int) (channel.Channel, error) {
	return nil, fmt.Errorf("no card reader driver configured")
}

// exit codes, per the CLI surface's documented contract.
const (
	exitOK              = 0
	exitInvalidOrCAP    = 1
	exitReaderOrPIN     = 2
	exitArgInconsistent = 3
)

type ctx struct {
	driver   Driver
	reader   int
	pin      string
	loglevel string
	redact   bool
	logger   *log.Logger
}

func openSession(c *ctx) (*session.Session, error) {
	ch, err := c.driver.Open(c.reader)
	if err != nil {
		return nil, err
	}
	logger := c.logger
	if c.loglevel != "debug" {
		logger = log.New(io.Discard, "", 0)
	}
	tp, err := transport.New(ch, logger)
	if err != nil {
		return nil, err
	}
	return session.New(tp), nil
}

// New builds the root cobra command. driver == nil uses a driver that
// always reports "no readers" — the honest behaviour for a build with no
// hardware backend wired in.
func New(version string, driver Driver) *cobra.Command {
	if driver == nil {
		driver = noReaderDriver{}
	}
	c := &ctx{driver: driver, logger: log.New(os.Stderr, "", log.LstdFlags)}

	root := &cobra.Command{
		Use:     "emvcap",
		Short:   "Utility to interact with EMV payment cards",
		Version: version,
		Long: `Utility to interact with EMV payment cards.

Although this tool has been relatively well tested, it's possible to
block or even damage your card, as well as get in trouble with your
card issuer. Please make sure you understand the risks.

Commands marked with [!] initiate a transaction on the card, resulting
in a permanent change to the card's internal state.`,
	}
	root.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	root.PersistentFlags().IntVarP(&c.reader, "reader", "r", 0, "the reader to use (default 0)")
	root.PersistentFlags().StringVarP(&c.pin, "pin", "p", "", "PIN. Note this may be shown in the system process list.")
	root.PersistentFlags().StringVarP(&c.loglevel, "loglevel", "l", "warn", "log level")
	root.PersistentFlags().BoolVar(&c.redact, "redact", false, "redact sensitive data for public display")
	root.PersistentFlags().Bool("no-redact", false, "do not redact sensitive data (default)")

	root.AddCommand(versionCmd(version))
	root.AddCommand(readersCmd(c))
	root.AddCommand(infoCmd(c))
	root.AddCommand(listAppsCmd(c))
	root.AddCommand(appDataCmd(c))
	root.AddCommand(capCmd(c))
	return root
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func readersCmd(c *ctx) *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "list available card readers",
		Run: func(cmd *cobra.Command, args []string) {
			readers, err := c.driver.Readers()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %s\n", err)
				os.Exit(exitReaderOrPIN)
			}
			fmt.Println("Available card readers:")
			for i, r := range readers {
				fmt.Printf("%d: %s\n", i, r)
			}
		},
	}
}

func listAppsCmd(c *ctx) *cobra.Command {
	return &cobra.Command{
		Use:   "listapps",
		Short: "list named applications on the card",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession(c)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			apps, err := s.ListApplications()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Index\tLabel\tADF")
			for i, app := range apps {
				label, _ := app.GetBytes(tlv.AppLabel)
				adf, _ := app.GetBytes(tlv.ADFName)
				fmt.Fprintf(w, "%d\t%s\t%s\n", i, label, tlv.RenderElement(tlv.ADFName, tlv.RawValue(adf), false))
			}
			w.Flush()
		},
	}
}

func appDataCmd(c *ctx) *cobra.Command {
	return &cobra.Command{
		Use:   "appdata <index>",
		Short: "[!] get card processing options and app data",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid application index %q\n", args[0])
				os.Exit(exitArgInconsistent)
			}
			s, err := openSession(c)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			apps, err := s.ListApplications()
			if err != nil || idx < 0 || idx >= len(apps) {
				fmt.Fprintln(os.Stderr, "application index out of range")
				os.Exit(exitReaderOrPIN)
			}
			app := apps[idx]
			adf, _ := app.GetBytes(tlv.ADFName)
			if _, err := s.SelectApplication(adf); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			opts, err := s.GetProcessingOptions()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			fmt.Printf("AIP: %s\nAFL: %s\n", bcd.FormatBytes(opts.AIP), bcd.FormatBytes(opts.AFL))

			data, err := s.GetApplicationData(opts.AFL)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			printTLVTable(data, "Application Data", c.redact)
		},
	}
}

func infoCmd(c *ctx) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "dump card information",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession(c)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			apps, err := s.ListApplications()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}
			for _, app := range apps {
				label, _ := app.GetBytes(tlv.AppLabel)
				adf, _ := app.GetBytes(tlv.ADFName)
				fmt.Printf("\nApplication %q, DF Name: %s\n", label, bcd.FormatBytes(adf))
			}

			meta := s.GetMetadata()
			fmt.Println("\nCard metadata:")
			if meta.PINTryCount != nil {
				fmt.Printf("  pin_retries: %d\n", *meta.PINTryCount)
			}
			if meta.ATC != nil {
				fmt.Printf("  atc: %d\n", *meta.ATC)
			}
			if meta.LastOnlineATC != nil {
				fmt.Printf("  last_online_atc: %d\n", *meta.LastOnlineATC)
			}
		},
	}
}

func capCmd(c *ctx) *cobra.Command {
	var challengeStr, amountStr string
	cmd := &cobra.Command{
		Use:   "cap",
		Short: "[!] perform EMV CAP authentication",
		Long:  "[!] perform EMV CAP authentication.\nThis will initiate a transaction on the card.",
		Run: func(cmd *cobra.Command, args []string) {
			if c.pin == "" {
				fmt.Fprintln(os.Stderr, "PIN is required")
				os.Exit(exitReaderOrPIN)
			}
			if amountStr != "" && challengeStr == "" {
				fmt.Fprintln(os.Stderr, "Challenge (account number) must be supplied with amount")
				os.Exit(exitArgInconsistent)
			}

			var challenge *uint64
			if challengeStr != "" {
				v, err := strconv.ParseUint(challengeStr, 10, 64)
				if err != nil {
					fmt.Fprintf(os.Stderr, "invalid challenge %q\n", challengeStr)
					os.Exit(exitArgInconsistent)
				}
				challenge = &v
			}
			var amount *float64
			if amountStr != "" {
				v, err := strconv.ParseFloat(amountStr, 64)
				if err != nil {
					fmt.Fprintf(os.Stderr, "invalid amount %q\n", amountStr)
					os.Exit(exitArgInconsistent)
				}
				amount = &v
			}

			s, err := openSession(c)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitReaderOrPIN)
			}

			code, err := s.GenerateCAPValue(c.pin, challenge, amount)
			if err != nil {
				var apduErr *apdu.Error
				if e, ok := err.(*apdu.Error); ok {
					apduErr = e
				}
				if apduErr != nil && apduErr.Kind == apdu.KindInvalidPIN {
					fmt.Fprintln(os.Stderr, "Invalid PIN")
					os.Exit(exitInvalidOrCAP)
				}
				fmt.Fprintf(os.Stderr, "Error in CAP generation: %s\n", err)
				os.Exit(exitInvalidOrCAP)
			}
			fmt.Println(code)
		},
	}
	cmd.Flags().StringVarP(&challengeStr, "challenge", "c", "", "account number or challenge")
	cmd.Flags().StringVarP(&amountStr, "amount", "a", "", "amount")
	return cmd
}

func printTLVTable(t *tlv.TLV, title string, redact bool) {
	fmt.Printf("\n%s:\n", title)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Tag\tName\tValue")
	for _, e := range t.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", bcd.FormatBytes(e.Tag.Bytes()), e.Tag.Name(), tlv.RenderElement(e.Tag, e.Value, redact))
	}
	w.Flush()
}
