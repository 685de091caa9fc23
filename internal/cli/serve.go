package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yildizm/DropPad/internal/emoji"
	"github.com/yildizm/DropPad/internal/server"
)

func newServeCommand(version string) *cobra.Command {
	var (
		host  string
		port  int
		token string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the DropPad page over HTTP",
		Long: `Start an HTTP server with the DropPad page and its session API.

Every browser tab gets its own session. When an access token is configured
the API requires it in the access-token header; open the page with
?token=... so the page can send it.`,
		Example: `  droppad serve
  droppad serve --host 0.0.0.0 --port 9000
  DROPPAD_SERVER_ACCESS_TOKEN=s3cret droppad serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if token != "" {
				cfg.Server.AccessToken = token
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := newLogger("server")
			srv, err := server.New(cfg, version, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s DropPad %s listening on %s\n", emoji.GetEmoji("server"), version, srv.Addr())
			fmt.Fprintf(out, "%s Open %s in a browser\n", emoji.GetEmoji("target"), srv.URL())
			if cfg.Server.AccessToken != "" {
				fmt.Fprintf(out, "%s API access requires the access-token header\n", emoji.GetEmoji("info"))
			}
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Server stopped\n", emoji.GetEmoji("success"))
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config: 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config: 8080)")
	cmd.Flags().StringVar(&token, "token", "", "require this access token on the API")

	return cmd
}
