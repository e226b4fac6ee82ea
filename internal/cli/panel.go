package cli

import (
	"fmt"
	"io"
	"os"

	"minepanel/internal/models"
	"minepanel/internal/skyport"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type panelFlags struct {
	url string
	key string
}

func (f *panelFlags) client() (*skyport.Client, error) {
	if f.key == "" {
		return nil, skyport.ErrNotConfigured
	}
	return skyport.NewClient(f.url, f.key, nil), nil
}

func newPanelCmd() *cobra.Command {
	flags := &panelFlags{}
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Query the Skyport panel directly",
	}
	cmd.PersistentFlags().StringVar(&flags.url, "url", envOr("SKYPORT_API_URL", models.DefaultSkyportAPIURL), "Skyport API base URL")
	cmd.PersistentFlags().StringVar(&flags.key, "key", os.Getenv("SKYPORT_API_KEY"), "Skyport application API key")

	cmd.AddCommand(&cobra.Command{
		Use:   "nodes",
		Short: "List panel nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			nodes, err := c.Nodes(cmd.Context())
			if err != nil {
				return err
			}
			printNodes(cmd.OutOrStdout(), nodes)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "eggs",
		Short: "List eggs of every nest",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			eggs, err := c.Eggs(cmd.Context())
			if err != nil {
				return err
			}
			printEggs(cmd.OutOrStdout(), eggs)
			return nil
		},
	})
	return cmd
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// mebibytes formats a panel size, which Skyport reports in MiB.
func mebibytes(mb int64) string {
	if mb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(mb) * 1024 * 1024)
}

func printNodes(out io.Writer, nodes []models.Node) {
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No nodes found.")
		return
	}
	for _, n := range nodes {
		fmt.Fprintf(out, "- %s (%s) [%s] %s\n", n.Name, n.FQDN, n.Status, n.Location)
		fmt.Fprintf(out, "    memory %s / %s, disk %s / %s, %d servers\n",
			mebibytes(n.MemoryUsed), mebibytes(n.Memory), mebibytes(n.DiskUsed), mebibytes(n.Disk), n.Servers)
	}
}

func printEggs(out io.Writer, eggs []models.Egg) {
	if len(eggs) == 0 {
		fmt.Fprintln(out, "No eggs found.")
		return
	}
	for _, e := range eggs {
		fmt.Fprintf(out, "- [%s] %s (%d) %s\n", e.Nest, e.Name, e.ID, e.DockerImage)
	}
}
