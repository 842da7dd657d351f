package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autoadopt/internal/codec"
	"autoadopt/internal/domain"
)

var (
	adoptFrom      string
	adoptAddresses []string
	adoptAlternate bool
	adoptSelected  bool

	adoptFromFormat string
)

var adoptCmd = &cobra.Command{
	Use:   "adopt",
	Short: "Point devices at the controller over SSH",
	Long: `Log in to each --address over SSH and issue set-inform with the configured
controller URL. Sessions run in parallel and their output is printed as it
arrives. With --selected, the devices selected in the stored inventory are
adopted instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adoptFrom != "" {
			fromFile, err := readTargets(adoptFrom)
			if err != nil {
				return err
			}
			adoptAddresses = append(adoptAddresses, fromFile...)
		}
		if len(adoptAddresses) == 0 && !adoptSelected {
			return fmt.Errorf("pass --address, --from or --selected")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		set := domain.CredentialsDefault
		if adoptAlternate {
			set = domain.CredentialsAlternate
		}

		batch, err := a.adoption.Adopt(ctx, adoptAddresses, set)
		if err != nil {
			return err
		}
		for addr, reason := range batch.Skipped {
			fmt.Printf("%s: skipped (%s)\n", addr, reason)
		}
		a.adoption.Wait()

		failed := 0
		fmt.Println()
		for _, addr := range batch.Started {
			d, ok := a.inventory.Get(addr)
			if !ok {
				continue
			}
			fmt.Printf("%s: %s\n", addr, d.Status)
			if d.Status != domain.StatusSuccess {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d adoptions failed", failed, len(batch.Started))
		}
		return nil
	},
}

func init() {
	adoptCmd.Flags().StringSliceVarP(&adoptAddresses, "address", "a", nil, "device address (repeatable)")
	adoptCmd.Flags().BoolVar(&adoptAlternate, "alternate", false, "use the alternate credentials")
	adoptCmd.Flags().StringVar(&adoptFrom, "from", "", "read addresses from a JSON, YAML or Ansible inventory file")
	adoptCmd.Flags().StringVar(&adoptFromFormat, "format", "", "format of --from (default from extension)")
	adoptCmd.Flags().BoolVar(&adoptSelected, "selected", false, "adopt the devices selected in the inventory")
}

// readTargets parses an address list file with the codec for its format
func readTargets(path string) ([]string, error) {
	format := adoptFromFormat
	if format == "" {
		format = codec.FormatFromPath(path)
	}
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	addresses, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return addresses, nil
}
