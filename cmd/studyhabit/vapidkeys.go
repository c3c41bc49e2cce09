package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/studyhabit/internal/config"
	"github.com/dukerupert/studyhabit/internal/push"
)

func newVAPIDKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s_VAPID_PUBLIC_KEY=%s\n", config.Prefix, pub)
			fmt.Fprintf(out, "%s_VAPID_PRIVATE_KEY=%s\n", config.Prefix, priv)
			return nil
		},
	}
}
