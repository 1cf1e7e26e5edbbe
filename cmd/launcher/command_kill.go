package main

import (
	"fmt"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	"github.com/spf13/cobra"
)

func newKillImageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill-image <image-name>...",
		Short: "Force-kill every process with the given image name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()

			force, _ := cmd.Flags().GetBool("force")
			excluded := supervisor.ExclusionSet(cfg.Supervisor.ExcludeImages...)
			query := procquery.New()
			for _, name := range args {
				image := procquery.NormalizeImage(name)
				if image == "" {
					continue
				}
				if excluded.Has(image) && !force {
					return fmt.Errorf("refusing to kill system image %s (use --force)", image)
				}
				if err := query.KillByImageName(image); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "killed %s\n", image)
			}
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "allow killing images on the detection denylist")
	return cmd
}
