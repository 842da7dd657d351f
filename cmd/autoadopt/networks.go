package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoadopt/internal/netiface"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List local IPv4 networks and the default scan range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := loadConfig(); err != nil {
			return err
		}

		networks, err := netiface.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(networks) == 0 {
			fmt.Println("No IPv4 networks found")
			return nil
		}

		def, _ := netiface.Default(networks)
		for _, n := range networks {
			marker := " "
			if n == def {
				marker = "*"
			}
			fmt.Printf("%s %s  range %s - %s\n", marker, n, n.Start, n.End)
		}
		return nil
	},
}
