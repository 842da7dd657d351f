package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"autoadopt/internal/codec"
	"autoadopt/internal/netiface"
)

var (
	scanStart  string
	scanEnd    string
	scanOutput string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover live hosts in an address range",
	Long: `Probe every address from --start to --end and list the hosts that answer,
with hardware address, vendor and whether SSH is open. Without a range the
default local network is scanned. Results replace the stored inventory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		start, end := scanStart, scanEnd
		if start == "" || end == "" {
			network, ok, err := netiface.Detect(ctx)
			if err != nil {
				return fmt.Errorf("detect local network: %w", err)
			}
			if !ok {
				return fmt.Errorf("no local IPv4 network found, pass --start and --end")
			}
			if start == "" {
				start = network.Start
			}
			if end == "" {
				end = network.End
			}
			fmt.Fprintf(os.Stderr, "Scanning %s\n", network)
		}

		devices, err := a.discovery.Scan(ctx, start, end)
		if err != nil {
			return err
		}

		if scanOutput != "table" {
			c, err := codec.ForFormat(scanOutput)
			if err != nil {
				return err
			}
			return c.Export(devices, os.Stdout)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tHARDWARE ADDRESS\tVENDOR\tSSH\tSTATUS")
		for _, d := range devices {
			ssh := "closed"
			if d.ManagementPortOpen {
				ssh = "open"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Address, d.HardwareAddress, d.Vendor, ssh, d.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d devices found in %s - %s\n", len(devices), start, end)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanStart, "start", "", "first address of the range")
	scanCmd.Flags().StringVar(&scanEnd, "end", "", "last address of the range")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "output format: table, json, yaml, ansible-inventory")
}
